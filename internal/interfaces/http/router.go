// Package http exposes the bot's HTTP surface: the Jira webhook
// endpoint and a health probe.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mishbel44/ortp-botik/internal/interfaces/http/handlers"
	"github.com/mishbel44/ortp-botik/internal/interfaces/http/middleware"
	"github.com/mishbel44/ortp-botik/internal/shared/logger"
)

type Router struct {
	engine *gin.Engine
}

func NewRouter(webhookHandler *handlers.WebhookHandler, mode string, log logger.Interface) *Router {
	if mode != "" {
		gin.SetMode(mode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.Logger(log))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	engine.POST("/webhooks/jira", webhookHandler.Handle)

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
