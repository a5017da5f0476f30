// Package worker polls the monitoring inbox for account registration
// requests, resolves them into the account store, and triggers an
// immediate balance refresh for each new registration.
package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/application"
	"github.com/Navjot67/tolls-app/internal/batch"
	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/imapclient"
	"github.com/Navjot67/tolls-app/internal/mailparse"
)

// Processed describes one inbound email that yielded a registration.
type Processed struct {
	From            string        `json:"from"`
	Subject         string        `json:"subject"`
	Source          string        `json:"source"`
	AccountNumber   string        `json:"account_number,omitempty"`
	ViolationNumber string        `json:"violation_number,omitempty"`
	PlateNumber     string        `json:"plate_number,omitempty"`
	Email           string        `json:"email,omitempty"`
	Outcome         batch.Outcome `json:"outcome"`
}

// InboxWorker is the inbound request pipeline: poll, parse, register,
// refresh, notify.
type InboxWorker struct {
	Client   *imapclient.Client
	Parser   *mailparse.Parser
	Accounts *application.AccountService
	Runner   *batch.Runner
	Logger   *logrus.Logger

	Interval time.Duration
	Limit    int
}

// Start polls until ctx is cancelled.
func (w *InboxWorker) Start(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	w.Logger.WithField("interval", interval.String()).Info("inbox worker started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.Logger.WithError(err).Error("inbox poll failed")
		}
		select {
		case <-ctx.Done():
			w.Logger.Info("inbox worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single poll cycle and returns what it processed.
// Every fetched message is flagged seen, parsed or not, so junk never
// gets re-examined on the next cycle.
func (w *InboxWorker) RunOnce(ctx context.Context) ([]Processed, error) {
	limit := w.Limit
	if limit <= 0 {
		limit = 10
	}

	var results []Processed
	err := w.Client.Poll(limit, func(m imapclient.Message) bool {
		req := w.Parser.Parse(m.Subject, m.Body, m.From)
		if req == nil {
			w.Logger.WithFields(logrus.Fields{
				"from":    m.From,
				"subject": m.Subject,
			}).Debug("no account request in message")
			return true
		}
		results = append(results, w.process(ctx, m, req))
		return true
	})
	if err != nil {
		return results, err
	}
	if len(results) > 0 {
		w.Logger.WithField("processed", len(results)).Info("inbox poll processed requests")
	}
	return results, nil
}

func (w *InboxWorker) process(ctx context.Context, m imapclient.Message, req *mailparse.Request) Processed {
	p := Processed{
		From:            m.From,
		Subject:         m.Subject,
		Source:          req.Source,
		AccountNumber:   req.AccountNumber,
		ViolationNumber: req.ViolationNumber,
		PlateNumber:     req.PlateNumber,
		Email:           req.Email,
	}

	for _, obs := range observationsFor(req) {
		if _, err := w.Accounts.AddAccount(obs); err != nil {
			w.Logger.WithError(err).WithFields(logrus.Fields{
				"source": obs.Source,
				"from":   m.From,
			}).Warn("rejected account observation")
		}
	}

	acc := accountFor(req)
	summary := w.Runner.RunAccounts(ctx, []entity.Account{acc})
	if len(summary.Outcomes) > 0 {
		p.Outcome = summary.Outcomes[0]
	}
	return p
}

// observationsFor splits a request into per-authority observations; a
// BOTH request registers under each authority in turn.
func observationsFor(req *mailparse.Request) []application.Observation {
	var obs []application.Observation
	if req.Source == entity.SourceNY || req.Source == "BOTH" {
		obs = append(obs, application.Observation{
			Source:        entity.SourceNY,
			AccountNumber: req.AccountNumber,
			PlateNumber:   req.PlateNumber,
			Email:         req.Email,
		})
	}
	if req.Source == entity.SourceNJ || req.Source == "BOTH" {
		obs = append(obs, application.Observation{
			Source:          entity.SourceNJ,
			ViolationNumber: req.ViolationNumber,
			PlateNumber:     req.PlateNumber,
			Email:           req.Email,
		})
	}
	return obs
}

func accountFor(req *mailparse.Request) entity.Account {
	acc := entity.Account{
		AccountNumber:     req.AccountNumber,
		PlateNumber:       req.PlateNumber,
		ViolationNumber:   req.ViolationNumber,
		NJViolationNumber: req.NJViolationNumber,
		NJPlateNumber:     req.NJPlateNumber,
		Email:             req.Email,
	}
	if req.Source == "BOTH" {
		acc.Sources = []string{entity.SourceNY, entity.SourceNJ}
	} else if req.Source != "" {
		acc.Sources = []string{req.Source}
	}
	return acc
}
