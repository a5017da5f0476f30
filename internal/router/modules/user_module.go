package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Navjot67/tolls-app/internal/container"
	"github.com/Navjot67/tolls-app/internal/domain/repository"
	handlers "github.com/Navjot67/tolls-app/internal/interface/http"
	"github.com/Navjot67/tolls-app/internal/interface/middleware"
)

// UserModule wires user HTTP handlers and bearer-token auth into routes
// Public: POST /api/user/signup, /api/user/login, /api/user/verify-otp,
// /api/user/resend-otp
// Protected: GET /api/user/data, POST /api/user/refresh
type UserModule struct {
	Handler *handlers.UserHandler
	Users   repository.UserRepository
}

func NewUserModule(h *handlers.UserHandler, users repository.UserRepository) *UserModule {
	return &UserModule{Handler: h, Users: users}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	signupLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	otpLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	resendLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/user/signup", signupLimiter, m.Handler.Signup)
	rg.POST("/user/login", loginLimiter, m.Handler.Login)
	rg.POST("/user/verify-otp", otpLimiter, m.Handler.VerifyOTP)
	rg.POST("/user/resend-otp", resendLimiter, m.Handler.ResendOTP)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Users))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()))
	{
		auth.GET("/user/data", m.Handler.Data)
		auth.POST("/user/refresh", m.Handler.Refresh)
	}
}
