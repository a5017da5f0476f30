package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/config"
	"github.com/Navjot67/tolls-app/internal/application"
	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/pkg/helpers"
	"github.com/Navjot67/tolls-app/pkg/mailer"
	"github.com/Navjot67/tolls-app/pkg/response"
	"github.com/Navjot67/tolls-app/pkg/validation"
)

type UserHandler struct {
	Service *application.UserService
	Pub     *helpers.RabbitPublisher
	RDB     *redis.Client
	Cfg     *config.Config
	Logger  *logrus.Logger
}

func NewUserHandler(service *application.UserService, pub *helpers.RabbitPublisher, rdb *redis.Client, cfg *config.Config, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Service: service, Pub: pub, RDB: rdb, Cfg: cfg, Logger: logger}
}

// userPayload is the API view of a user record. Credentials and OTP state
// never leave the store.
func userPayload(u *entity.User) gin.H {
	accounts := u.Accounts
	if accounts == nil {
		accounts = []entity.AccountSummary{}
	}
	return gin.H{
		"email":          u.Email,
		"name":           u.Name,
		"email_verified": u.EmailVerified,
		"accounts":       accounts,
		"created_at":     u.CreatedAt,
		"last_login":     u.LastLogin,
	}
}

func (h *UserHandler) queueOTPEmail(c *gin.Context, email, name, otp string) {
	if !h.Cfg.MailSendEnabled || h.Pub == nil {
		return
	}
	job, err := mailer.BuildOTPJob(email, name, otp, h.Cfg.OTPTTL)
	if err != nil {
		h.Logger.WithError(err).Error("failed to render otp email")
		return
	}
	if err := h.Pub.PublishJSON(c.Request.Context(), job); err != nil {
		h.Logger.WithError(err).WithField("to", email).Error("failed to enqueue otp email")
	}
}

// Signup POST /api/user/signup
func (h *UserHandler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,pwd"`
		Name     string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Service.Signup(req.Email, req.Password, req.Name)
	switch {
	case errors.Is(err, application.ErrEmailRegistered):
		response.Error[any](c, http.StatusConflict, "email already registered", nil)
		return
	case errors.Is(err, application.ErrInvalidEmail), errors.Is(err, application.ErrWeakPassword):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		return
	case err != nil:
		response.Error[any](c, http.StatusInternalServerError, "signup failed", nil)
		return
	}

	h.queueOTPEmail(c, res.User.Email, res.User.Name, res.OTP)

	msg := "signup successful, verification code sent"
	if res.Resend {
		msg = "signup refreshed, new verification code sent"
	}
	response.Success(c, http.StatusCreated, gin.H{
		"email":  res.User.Email,
		"resend": res.Resend,
	}, msg, nil)
}

// Login POST /api/user/login
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Service.Login(req.Email, req.Password)
	switch {
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	case errors.Is(err, application.ErrInvalidPassword):
		response.Error[any](c, http.StatusUnauthorized, "invalid password", nil)
		return
	case errors.Is(err, application.ErrEmailNotVerified):
		response.Error[any](c, http.StatusForbidden, "email not verified", gin.H{"needs_verification": true})
		return
	case err != nil:
		response.Error[any](c, http.StatusInternalServerError, "login failed", nil)
		return
	}

	if accounts, err := h.Service.LinkAccountsToUser(u.Email); err == nil {
		u.Accounts = accounts
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": u.Token,
		"user":  userPayload(u),
	}, "login successful", nil)
}

// VerifyOTP POST /api/user/verify-otp
func (h *UserHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		OTP   string `json:"otp" binding:"required,len=6,numeric"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Service.VerifyOTP(req.Email, req.OTP)
	switch {
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	case errors.Is(err, application.ErrNoOTP),
		errors.Is(err, application.ErrOTPExpired),
		errors.Is(err, application.ErrOTPInvalid):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
		return
	case err != nil:
		response.Error[any](c, http.StatusInternalServerError, "verification failed", nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": u.Token,
		"user":  userPayload(u),
	}, "email verified", nil)
}

// ResendOTP POST /api/user/resend-otp
func (h *UserHandler) ResendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	// One resend per minute per address.
	if h.RDB != nil {
		ok, err := h.RDB.SetNX(c.Request.Context(), helpers.KeyOTPResend(entity.NormalizeEmail(req.Email)), "1", time.Minute).Result()
		if err == nil && !ok {
			response.Error[any](c, http.StatusTooManyRequests, "please wait before requesting another code", nil)
			return
		}
	}

	otp, err := h.Service.ResendOTP(req.Email)
	switch {
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	case errors.Is(err, application.ErrAlreadyVerified):
		response.Error[any](c, http.StatusBadRequest, "email already verified", nil)
		return
	case err != nil:
		response.Error[any](c, http.StatusInternalServerError, "resend failed", nil)
		return
	}

	u, _ := h.Service.GetByEmail(req.Email)
	name := ""
	if u != nil {
		name = u.Name
	}
	h.queueOTPEmail(c, entity.NormalizeEmail(req.Email), name, otp)

	response.Success[any](c, http.StatusOK, gin.H{"resent": true}, "verification code sent", nil)
}

// Data GET /api/user/data (auth required)
func (h *UserHandler) Data(c *gin.Context) {
	email := c.GetString("userEmail")
	u, err := h.Service.GetByEmail(email)
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	if accounts, err := h.Service.LinkAccountsToUser(email); err == nil {
		u.Accounts = accounts
	}
	response.Success(c, http.StatusOK, userPayload(u), "user data", nil)
}

// Refresh POST /api/user/refresh (auth required)
// Rebuilds the account projection from the account store.
func (h *UserHandler) Refresh(c *gin.Context) {
	email := c.GetString("userEmail")
	accounts, err := h.Service.LinkAccountsToUser(email)
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"accounts": accounts}, "accounts refreshed", nil)
}
