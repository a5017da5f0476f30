package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Navjot67/tolls-app/internal/container"
	handlers "github.com/Navjot67/tolls-app/internal/interface/http"
	"github.com/Navjot67/tolls-app/internal/interface/middleware"
)

// AccountModule registers the stored-collection endpoints.
type AccountModule struct {
	Handler *handlers.AccountHandler
}

func NewAccountModule(h *handlers.AccountHandler) *AccountModule {
	return &AccountModule{Handler: h}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	writeLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())

	rg.GET("/accounts", m.Handler.List)
	rg.POST("/accounts", writeLimiter, m.Handler.Save)
	rg.POST("/accounts/add", writeLimiter, m.Handler.Add)
}
