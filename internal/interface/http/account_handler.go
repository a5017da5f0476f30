package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/application"
	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/pkg/response"
	"github.com/Navjot67/tolls-app/pkg/validation"
)

// AccountHandler exposes the stored account collection.
type AccountHandler struct {
	Service *application.AccountService
	Logger  *logrus.Logger
}

func NewAccountHandler(service *application.AccountService, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{Service: service, Logger: logger}
}

// List GET /api/accounts
func (h *AccountHandler) List(c *gin.Context) {
	accounts := h.Service.List()
	if accounts == nil {
		accounts = []entity.Account{}
	}
	response.Success(c, http.StatusOK, gin.H{"accounts": accounts}, "saved accounts", nil)
}

// Save POST /api/accounts
// Full-collection replace; balance data carries forward for matching
// records that arrive without it.
func (h *AccountHandler) Save(c *gin.Context) {
	var req struct {
		Accounts []entity.Account `json:"accounts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if req.Accounts == nil {
		req.Accounts = []entity.Account{}
	}

	saved, err := h.Service.SaveCollection(req.Accounts)
	switch {
	case errors.Is(err, application.ErrInvalidAccount):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		return
	case err != nil:
		response.Error[any](c, http.StatusInternalServerError, "failed to save accounts", nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"accounts": saved},
		"saved accounts successfully", gin.H{"count": len(saved)})
}

// Add POST /api/accounts/add
// Single observation through the identity resolver: dedupes, merges by
// email, or creates.
func (h *AccountHandler) Add(c *gin.Context) {
	var req struct {
		Source          string `json:"source"`
		AccountNumber   string `json:"account_number"`
		PlateNumber     string `json:"plate_number" binding:"required"`
		ViolationNumber string `json:"violation_number"`
		Email           string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	result, err := h.Service.AddAccount(application.Observation{
		Source:          req.Source,
		AccountNumber:   req.AccountNumber,
		PlateNumber:     req.PlateNumber,
		ViolationNumber: req.ViolationNumber,
		Email:           req.Email,
	})
	switch {
	case errors.Is(err, application.ErrMissingNYIdentity),
		errors.Is(err, application.ErrMissingNJIdentity),
		errors.Is(err, application.ErrUnknownSource):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		return
	case err != nil:
		response.Error[any](c, http.StatusInternalServerError, "failed to add account", nil)
		return
	}

	response.Success(c, http.StatusOK, result, "account processed", nil)
}
