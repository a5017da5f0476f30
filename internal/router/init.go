package router

import (
	"github.com/Navjot67/tolls-app/internal/application"
	"github.com/Navjot67/tolls-app/internal/batch"
	"github.com/Navjot67/tolls-app/internal/container"
	"github.com/Navjot67/tolls-app/internal/imapclient"
	"github.com/Navjot67/tolls-app/internal/mailparse"
	handlers "github.com/Navjot67/tolls-app/internal/interface/http"
	"github.com/Navjot67/tolls-app/internal/router/modules"
	"github.com/Navjot67/tolls-app/internal/worker"
)

// InitModules builds the application services from the container
// singletons and registers every feature module with the router registry.
// It is called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	accountRepo := container.GetAccountRepo()
	userRepo := container.GetUserRepo()

	accountSvc := application.NewAccountService(accountRepo, logger)
	reconciler := application.NewReconciler(accountRepo, logger)
	userSvc := application.NewUserService(userRepo, accountRepo, logger, cfg.OTPTTL)

	runner := &batch.Runner{
		Accounts:          accountSvc,
		Reconciler:        reconciler,
		Fetcher:           container.GetFetcher(),
		Publisher:         container.GetRabbitPub(),
		Logger:            logger,
		AccountTimeout:    cfg.AccountTimeout,
		InterAccountDelay: cfg.InterAccountDelay,
		MailEnabled:       cfg.MailSendEnabled,
	}

	var inbox *worker.InboxWorker
	if cfg.IMAPUser != "" && cfg.IMAPPassword != "" {
		imap := imapclient.New(cfg.IMAPAddr(), cfg.IMAPUser, cfg.IMAPPassword, logger)
		if cfg.IMAPFolder != "" {
			imap.Folder = cfg.IMAPFolder
		}
		inbox = &worker.InboxWorker{
			Client:   imap,
			Parser:   mailparse.NewParser(cfg.MonitoringEmail, logger),
			Accounts: accountSvc,
			Runner:   runner,
			Logger:   logger,
			Interval: cfg.EmailCheckInterval,
		}
	}

	userHandler := handlers.NewUserHandler(userSvc, container.GetRabbitPub(), container.GetRedis(), cfg, logger)
	tollHandler := handlers.NewTollHandler(container.GetFetcher(), runner, inbox, container.GetRabbitPub(), cfg, logger)
	accountHandler := handlers.NewAccountHandler(accountSvc, logger)

	r.Add(modules.NewUserModule(userHandler, userRepo))
	r.Add(modules.NewTollModule(tollHandler))
	r.Add(modules.NewAccountModule(accountHandler))
}
