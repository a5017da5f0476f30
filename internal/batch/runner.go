// Package batch runs the scheduled balance refresh: every stored account,
// one at a time, NY then NJ, with a delay between accounts so the toll
// sites never see a burst of lookups from one address.
package batch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/application"
	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/scraper"
	"github.com/Navjot67/tolls-app/pkg/helpers"
	"github.com/Navjot67/tolls-app/pkg/mailer"
)

// Outcome is the result for one account in a batch pass.
type Outcome struct {
	AccountNumber   string               `json:"account_number,omitempty"`
	ViolationNumber string               `json:"violation_number,omitempty"`
	PlateNumber     string               `json:"plate_number,omitempty"`
	Skipped         bool                 `json:"skipped,omitempty"`
	SkipReason      string               `json:"skip_reason,omitempty"`
	EmailQueued     bool                 `json:"email_queued"`
	Combined        application.Combined `json:"combined"`
}

// Summary is the batch pass rollup.
type Summary struct {
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Outcomes  []Outcome `json:"results"`
}

// Runner drives one refresh pass over a set of accounts.
type Runner struct {
	Accounts   *application.AccountService
	Reconciler *application.Reconciler
	Fetcher    scraper.Fetcher
	Publisher  *helpers.RabbitPublisher
	Logger     *logrus.Logger

	// AccountTimeout bounds each account's lookups; InterAccountDelay
	// spaces consecutive accounts.
	AccountTimeout    time.Duration
	InterAccountDelay time.Duration
	MailEnabled       bool
}

// Run refreshes every stored account.
func (r *Runner) Run(ctx context.Context) Summary {
	return r.RunAccounts(ctx, r.Accounts.List())
}

// RunAccounts refreshes the given accounts sequentially. The pass keeps
// going past individual failures; only ctx cancellation stops it early.
func (r *Runner) RunAccounts(ctx context.Context, accounts []entity.Account) Summary {
	summary := Summary{Total: len(accounts), Outcomes: []Outcome{}}

	for i := range accounts {
		if ctx.Err() != nil {
			r.Logger.Warn("batch cancelled before completion")
			break
		}
		if i > 0 && r.InterAccountDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(r.InterAccountDelay):
			}
			if ctx.Err() != nil {
				r.Logger.Warn("batch cancelled before completion")
				break
			}
		}

		out := r.processOne(ctx, &accounts[i])
		summary.Outcomes = append(summary.Outcomes, out)
		switch {
		case out.Skipped:
			summary.Skipped++
		case out.Combined.Success:
			summary.Processed++
			summary.Succeeded++
		default:
			summary.Processed++
			summary.Failed++
		}
	}

	r.Logger.WithFields(logrus.Fields{
		"total":     summary.Total,
		"processed": summary.Processed,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	}).Info("batch refresh finished")
	return summary
}

func (r *Runner) processOne(ctx context.Context, acc *entity.Account) Outcome {
	out := Outcome{
		AccountNumber:   acc.AccountNumber,
		ViolationNumber: acc.EffectiveViolationNumber(),
		PlateNumber:     acc.PlateNumber,
	}

	hasNY := acc.HasNY()
	hasNJ := acc.HasNJ()
	if !hasNY && !hasNJ {
		out.Skipped = true
		out.SkipReason = "no complete NY or NJ identity"
		r.Logger.WithFields(logrus.Fields{
			"account": acc.AccountNumber,
			"plate":   acc.PlateNumber,
			"email":   acc.Email,
		}).Warn("skipping account with incomplete identity")
		return out
	}

	accCtx := ctx
	if r.AccountTimeout > 0 {
		var cancel context.CancelFunc
		accCtx, cancel = context.WithTimeout(ctx, r.AccountTimeout)
		defer cancel()
	}

	var nyResult, njResult *entity.ExtractionResult
	if hasNY {
		res := r.Fetcher.FetchNY(accCtx, acc.AccountNumber, acc.PlateNumber)
		nyResult = &res
	}
	if hasNJ {
		res := r.Fetcher.FetchNJ(accCtx, acc.EffectiveViolationNumber(), acc.EffectiveNJPlate())
		njResult = &res
	}

	combined := application.Combine(acc, nyResult, njResult)
	out.Combined = combined
	if !combined.Success {
		return out
	}

	r.Reconciler.Apply(acc, combined)
	out.EmailQueued = r.queueEmail(ctx, acc, combined)
	return out
}

// queueEmail enqueues the toll-info notification when the account has a
// contact address.
func (r *Runner) queueEmail(ctx context.Context, acc *entity.Account, c application.Combined) bool {
	if !r.MailEnabled || r.Publisher == nil || entity.NormalizeEmail(acc.Email) == "" {
		return false
	}
	job, err := mailer.BuildTollInfoJob(entity.NormalizeEmail(acc.Email), mailer.TollInfo{
		AccountNumber:   acc.AccountNumber,
		PlateNumber:     acc.PlateNumber,
		ViolationNumber: acc.EffectiveViolationNumber(),
		NJPlateNumber:   acc.NJPlateNumber,
		BalanceAmount:   c.BalanceAmount,
		NYBalance:       c.NYBalanceAmount,
		NJBalance:       c.NJBalanceAmount,
		BillNumbers:     c.TollBillNumbers,
		ViolationCount:  c.ViolationCount,
		Sources:         acc.EffectiveSources(),
	})
	if err != nil {
		r.Logger.WithError(err).Error("failed to render toll email")
		return false
	}
	if err := r.Publisher.PublishJSON(ctx, job); err != nil {
		r.Logger.WithError(err).WithField("to", acc.Email).Error("failed to enqueue toll email")
		return false
	}
	return true
}
