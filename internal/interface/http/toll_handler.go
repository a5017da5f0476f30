package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/config"
	"github.com/Navjot67/tolls-app/internal/batch"
	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/scraper"
	"github.com/Navjot67/tolls-app/internal/worker"
	"github.com/Navjot67/tolls-app/pkg/helpers"
	"github.com/Navjot67/tolls-app/pkg/mailer"
	"github.com/Navjot67/tolls-app/pkg/response"
	"github.com/Navjot67/tolls-app/pkg/validation"
)

// TollHandler exposes the on-demand lookup endpoints. Lookups hit the
// real toll sites, so each request is bounded by the per-account timeout.
type TollHandler struct {
	Fetcher scraper.Fetcher
	Runner  *batch.Runner
	Inbox   *worker.InboxWorker
	Pub     *helpers.RabbitPublisher
	Cfg     *config.Config
	Logger  *logrus.Logger

	mu       sync.Mutex
	lastData *entity.ExtractionResult
}

func NewTollHandler(fetcher scraper.Fetcher, runner *batch.Runner, inbox *worker.InboxWorker, pub *helpers.RabbitPublisher, cfg *config.Config, logger *logrus.Logger) *TollHandler {
	return &TollHandler{Fetcher: fetcher, Runner: runner, Inbox: inbox, Pub: pub, Cfg: cfg, Logger: logger}
}

func (h *TollHandler) lookupCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.Cfg.AccountTimeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.Cfg.AccountTimeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (h *TollHandler) setLastData(r entity.ExtractionResult) {
	h.mu.Lock()
	h.lastData = &r
	h.mu.Unlock()
}

// queueTollEmail enqueues a toll-info notification built from one result.
func (h *TollHandler) queueTollEmail(c *gin.Context, to string, r entity.ExtractionResult) bool {
	if to == "" || !r.Success || !h.Cfg.MailSendEnabled || h.Pub == nil {
		return false
	}
	sources := []string{r.Source}
	job, err := mailer.BuildTollInfoJob(entity.NormalizeEmail(to), mailer.TollInfo{
		AccountNumber:   r.AccountNumber,
		PlateNumber:     r.PlateNumber,
		ViolationNumber: r.ViolationNumber,
		BalanceAmount:   r.BalanceAmount,
		NYBalance:       r.NYBalanceAmount,
		NJBalance:       r.NJBalanceAmount,
		BillNumbers:     r.TollBillNumbers,
		ViolationCount:  r.ViolationCount,
		Sources:         sources,
	})
	if err != nil {
		h.Logger.WithError(err).Error("failed to render toll email")
		return false
	}
	if err := h.Pub.PublishJSON(c.Request.Context(), job); err != nil {
		h.Logger.WithError(err).WithField("to", to).Error("failed to enqueue toll email")
		return false
	}
	return true
}

// FetchTollInfo POST /api/fetch-toll-info
// NY lookup by account number and plate, optionally emailing the result.
func (h *TollHandler) FetchTollInfo(c *gin.Context) {
	var req struct {
		AccountNumber string `json:"account_number" binding:"required"`
		PlateNumber   string `json:"plate_number" binding:"required"`
		Email         string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "account number and plate number are required", validation.ToDetails(err))
		return
	}

	ctx, cancel := h.lookupCtx(c)
	defer cancel()

	result := h.Fetcher.FetchNY(ctx, entity.NormalizeKey(req.AccountNumber), entity.NormalizeKey(req.PlateNumber))
	h.setLastData(result)

	emailQueued := h.queueTollEmail(c, req.Email, result)
	response.Success(c, http.StatusOK, gin.H{
		"result":       result,
		"email_queued": emailQueued,
	}, "toll lookup finished", nil)
}

// FetchSingleAccount POST /api/fetch-single-account
// Source-aware single lookup: NY by account+plate, NJ by violation+plate.
func (h *TollHandler) FetchSingleAccount(c *gin.Context) {
	var req struct {
		Source          string `json:"source"`
		AccountNumber   string `json:"account_number"`
		ViolationNumber string `json:"violation_number"`
		PlateNumber     string `json:"plate_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "plate number is required", validation.ToDetails(err))
		return
	}

	source := entity.NormalizeKey(req.Source)
	if source == "" {
		source = entity.SourceNY
	}

	ctx, cancel := h.lookupCtx(c)
	defer cancel()

	var result entity.ExtractionResult
	switch source {
	case entity.SourceNJ:
		if req.ViolationNumber == "" {
			response.Error[any](c, http.StatusBadRequest, "violation number is required for NJ E-ZPass", nil)
			return
		}
		result = h.Fetcher.FetchNJ(ctx, entity.NormalizeKey(req.ViolationNumber), entity.NormalizeKey(req.PlateNumber))
	case entity.SourceNY:
		if req.AccountNumber == "" {
			response.Error[any](c, http.StatusBadRequest, "account number is required for NY E-ZPass", nil)
			return
		}
		result = h.Fetcher.FetchNY(ctx, entity.NormalizeKey(req.AccountNumber), entity.NormalizeKey(req.PlateNumber))
	default:
		response.Error[any](c, http.StatusBadRequest, "source must be NY or NJ", nil)
		return
	}

	h.setLastData(result)
	response.Success(c, http.StatusOK, result, "toll lookup finished", nil)
}

// FetchNJViolation POST /api/fetch-nj-violation
func (h *TollHandler) FetchNJViolation(c *gin.Context) {
	var req struct {
		ViolationNumber string `json:"violation_number" binding:"required"`
		PlateNumber     string `json:"plate_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "violation number and plate number are required", validation.ToDetails(err))
		return
	}

	ctx, cancel := h.lookupCtx(c)
	defer cancel()

	result := h.Fetcher.FetchNJ(ctx, entity.NormalizeKey(req.ViolationNumber), entity.NormalizeKey(req.PlateNumber))
	h.setLastData(result)
	response.Success(c, http.StatusOK, result, "toll lookup finished", nil)
}

// FetchBatch POST /api/fetch-batch-toll-info
// Sequential refresh of an ad-hoc account list. Accounts without a
// complete identity pair are rejected up front.
func (h *TollHandler) FetchBatch(c *gin.Context) {
	var req struct {
		Accounts []entity.Account `json:"accounts" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "at least one account is required", validation.ToDetails(err))
		return
	}
	for i := range req.Accounts {
		if !req.Accounts[i].HasNY() && !req.Accounts[i].HasNJ() {
			response.Error[any](c, http.StatusBadRequest, "all accounts must have a NY (account+plate) or NJ (violation+plate) identity", nil)
			return
		}
	}

	summary := h.Runner.RunAccounts(c.Request.Context(), req.Accounts)
	response.Success(c, http.StatusOK, summary, "batch lookup finished", nil)
}

// LastData GET /api/last-data
func (h *TollHandler) LastData(c *gin.Context) {
	h.mu.Lock()
	last := h.lastData
	h.mu.Unlock()
	if last == nil {
		response.Error[any](c, http.StatusNotFound, "no data available, fetch toll information first", nil)
		return
	}
	response.Success(c, http.StatusOK, *last, "last fetched data", nil)
}

// SendAccountEmail POST /api/send-account-email
// Enqueues a toll-info email built from caller-provided data.
func (h *TollHandler) SendAccountEmail(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		TollData struct {
			AccountNumber   string   `json:"account_number"`
			PlateNumber     string   `json:"plate_number"`
			ViolationNumber string   `json:"violation_number"`
			NJPlateNumber   string   `json:"nj_plate_number"`
			BalanceAmount   float64  `json:"balance_amount"`
			NYBalanceAmount float64  `json:"ny_balance_amount"`
			NJBalanceAmount float64  `json:"nj_balance_amount"`
			TollBillNumbers []string `json:"toll_bill_numbers"`
			ViolationCount  int      `json:"violation_count"`
			Sources         []string `json:"sources"`
		} `json:"toll_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "email address and toll data are required", validation.ToDetails(err))
		return
	}
	if h.Pub == nil || !h.Cfg.MailSendEnabled {
		response.Error[any](c, http.StatusServiceUnavailable, "email sending is disabled", nil)
		return
	}

	job, err := mailer.BuildTollInfoJob(entity.NormalizeEmail(req.Email), mailer.TollInfo{
		AccountNumber:   req.TollData.AccountNumber,
		PlateNumber:     req.TollData.PlateNumber,
		ViolationNumber: req.TollData.ViolationNumber,
		NJPlateNumber:   req.TollData.NJPlateNumber,
		BalanceAmount:   req.TollData.BalanceAmount,
		NYBalance:       req.TollData.NYBalanceAmount,
		NJBalance:       req.TollData.NJBalanceAmount,
		BillNumbers:     req.TollData.TollBillNumbers,
		ViolationCount:  req.TollData.ViolationCount,
		Sources:         req.TollData.Sources,
	})
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to render email", nil)
		return
	}
	if err := h.Pub.PublishJSON(c.Request.Context(), job); err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to enqueue email", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"queued": true}, "email queued for "+entity.NormalizeEmail(req.Email), nil)
}

// CheckEmails POST /api/check-emails
// Runs one inbox poll cycle immediately instead of waiting for the
// worker interval.
func (h *TollHandler) CheckEmails(c *gin.Context) {
	if h.Inbox == nil {
		response.Error[any](c, http.StatusServiceUnavailable, "inbox worker not configured", nil)
		return
	}
	processed, err := h.Inbox.RunOnce(c.Request.Context())
	if err != nil {
		response.Error[any](c, http.StatusBadGateway, "inbox poll failed", err.Error())
		return
	}
	if processed == nil {
		processed = []worker.Processed{}
	}
	response.Success(c, http.StatusOK, gin.H{
		"processed": len(processed),
		"requests":  processed,
	}, "inbox checked", nil)
}
