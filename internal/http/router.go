// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wander/internal/http/handlers"
	"wander/internal/http/middleware"
	"wander/internal/modules/conversation"
	"wander/internal/modules/generation"
	"wander/internal/modules/quota"
)

// NewRouter wires all boundaries. quotaService may be nil when no database
// is configured; quota checks are then skipped.
func NewRouter(
	convService *conversation.Service,
	registry *generation.Registry,
	quotaService *quota.Service,
) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery(), middleware.CORS())

	// A nil *quota.Service must stay nil as an interface too, so the
	// handlers' nil check keeps working.
	var quotaConsumer handlers.QuotaConsumer
	if quotaService != nil {
		quotaConsumer = quotaService
	}

	convHandler := handlers.NewConversationHandler(convService, registry, quotaConsumer)
	r.POST("/api/conversations/messages", convHandler.Message)

	genHandler := handlers.NewGenerationHandler(registry, quotaConsumer)
	r.POST("/api/generations", genHandler.Start)
	r.GET("/api/generations/:id", genHandler.Poll)
	r.POST("/api/generations/:id/cancel", genHandler.Cancel)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
