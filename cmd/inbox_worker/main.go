// Command inbox_worker polls the monitoring mailbox for account
// registration requests and processes them until interrupted.
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
	"github.com/Navjot67/tolls-app/internal/imapclient"
	"github.com/Navjot67/tolls-app/internal/infrastructure/jsonstore"
	"github.com/Navjot67/tolls-app/internal/mailparse"
	"github.com/Navjot67/tolls-app/internal/scraper"
	"github.com/Navjot67/tolls-app/internal/worker"
	"github.com/Navjot67/tolls-app/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-inbox", cfg.Env)

	if cfg.IMAPUser == "" || cfg.IMAPPassword == "" {
		log.Fatal("IMAP credentials not configured")
	}

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

	accountSvc := application.NewAccountService(accountStore, logger)
	runner := &batch.Runner{
		Accounts:          accountSvc,
		Reconciler:        application.NewReconciler(accountStore, logger),
		Fetcher:           scraper.NewChromeScraper(cfg.ScraperHeadless, logger),
		Publisher:         pub,
		Logger:            logger,
		AccountTimeout:    cfg.AccountTimeout,
		InterAccountDelay: cfg.InterAccountDelay,
		MailEnabled:       cfg.MailSendEnabled,
	}

	imap := imapclient.New(cfg.IMAPAddr(), cfg.IMAPUser, cfg.IMAPPassword, logger)
	if cfg.IMAPFolder != "" {
		imap.Folder = cfg.IMAPFolder
	}

	w := &worker.InboxWorker{
		Client:   imap,
		Parser:   mailparse.NewParser(cfg.MonitoringEmail, logger),
		Accounts: accountSvc,
		Runner:   runner,
		Logger:   logger,
		Interval: cfg.EmailCheckInterval,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w.Start(ctx)
}
