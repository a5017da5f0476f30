// Command autofetch runs one sequential balance refresh over every stored
// account, then exits. Intended to be run from cron.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Navjot67/tolls-app/config"
	"github.com/Navjot67/tolls-app/internal/application"
	"github.com/Navjot67/tolls-app/internal/batch"
	"github.com/Navjot67/tolls-app/internal/infrastructure/jsonstore"
	"github.com/Navjot67/tolls-app/internal/scraper"
	"github.com/Navjot67/tolls-app/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-autofetch", cfg.Env)

	accountStore := jsonstore.NewAccountStore(cfg.AccountsFile, logger)

	var pub *helpers.RabbitPublisher
	if cfg.RabbitMQURL != "" && cfg.RabbitMQEmailQueue != "" {
		p, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; email notifications disabled")
		} else {
			pub = p
			defer pub.Close()
		}
	}

	runner := &batch.Runner{
		Accounts:          application.NewAccountService(accountStore, logger),
		Reconciler:        application.NewReconciler(accountStore, logger),
		Fetcher:           scraper.NewChromeScraper(cfg.ScraperHeadless, logger),
		Publisher:         pub,
		Logger:            logger,
		AccountTimeout:    cfg.AccountTimeout,
		InterAccountDelay: cfg.InterAccountDelay,
		MailEnabled:       cfg.MailSendEnabled,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary := runner.Run(ctx)
	if summary.Failed > 0 {
		log.Printf("refresh finished with %d failure(s) out of %d account(s)", summary.Failed, summary.Total)
	}
}
