package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Navjot67/tolls-app/internal/container"
	handlers "github.com/Navjot67/tolls-app/internal/interface/http"
	"github.com/Navjot67/tolls-app/internal/interface/middleware"
)

// TollModule registers the lookup endpoints. Each lookup drives a real
// browser session against a toll site, so the limits are deliberately
// tight.
type TollModule struct {
	Handler *handlers.TollHandler
}

func NewTollModule(h *handlers.TollHandler) *TollModule {
	return &TollModule{Handler: h}
}

func (m *TollModule) Register(rg *gin.RouterGroup) {
	lookupLimiter := middleware.RateLimit(container.GetRedis(), 6, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	batchLimiter := middleware.RateLimit(container.GetRedis(), 2, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	mailLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/fetch-toll-info", lookupLimiter, m.Handler.FetchTollInfo)
	rg.POST("/fetch-single-account", lookupLimiter, m.Handler.FetchSingleAccount)
	rg.POST("/fetch-nj-violation", lookupLimiter, m.Handler.FetchNJViolation)
	rg.POST("/fetch-batch-toll-info", batchLimiter, m.Handler.FetchBatch)
	rg.GET("/last-data", m.Handler.LastData)
	rg.POST("/send-account-email", mailLimiter, m.Handler.SendAccountEmail)
	rg.POST("/check-emails", batchLimiter, m.Handler.CheckEmails)
}
