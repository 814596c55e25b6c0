// Package api exposes webhook receipt, content lookup and admin inspection over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/resolver"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/server"
)

const decimalBase = 10

// WebhookReceiver stores and enqueues inbound notifications.
type WebhookReceiver interface {
	Receive(ctx context.Context, url string, headers map[string][]string, payload map[string]any) (*domain.WebhookRecord, error)
}

// ContentResolver answers locale-aware content lookups.
type ContentResolver interface {
	LocaleFor(requested string) resolver.Locale
	ResolvePage(ctx context.Context, path string, l resolver.Locale) (*domain.ContentRecord, error)
	ResolveSections(ctx context.Context, path string, l resolver.Locale) ([]domain.ContentRecord, error)
}

// WebhookReader loads stored webhook records.
type WebhookReader interface {
	FindByID(ctx context.Context, id int64) (*domain.WebhookRecord, error)
}

// ContentReader loads stored content records.
type ContentReader interface {
	FindByID(ctx context.Context, id int64) (*domain.ContentRecord, error)
}

// Deps contains the collaborators of a Handler.
type Deps struct {
	Webhooks     WebhookReceiver
	Resolver     ContentResolver
	WebhookStore WebhookReader
	ContentStore ContentReader
	// WebhookToken guards the webhook endpoint; empty disables the check.
	WebhookToken string
	// APIKey is the public key handed to the visual editor.
	APIKey string
	Logger logger.Logger
}

// Handler serves the HTTP API.
type Handler struct {
	webhooks     WebhookReceiver
	resolver     ContentResolver
	webhookStore WebhookReader
	contentStore ContentReader
	webhookToken string
	apiKey       string
	log          logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		webhooks:     deps.Webhooks,
		resolver:     deps.Resolver,
		webhookStore: deps.WebhookStore,
		contentStore: deps.ContentStore,
		webhookToken: deps.WebhookToken,
		apiKey:       deps.APIKey,
		log:          deps.Logger,
	}
}

// Register mounts every route on router. Admin routes require a JWT signed with jwtSecret.
func (h *Handler) Register(router gin.IRouter, jwtSecret string) {
	router.POST("/_builder/webhook", h.ReceiveWebhook)

	v1 := router.Group("/api/v1")
	v1.GET("/pages", h.GetPage)
	v1.GET("/sections", h.GetSections)
	v1.GET("/editor", h.GetEditor)

	admin := server.ProtectedGroup(v1, "/admin", jwtSecret)
	admin.GET("/webhooks/:id", h.GetWebhook)
	admin.GET("/contents/:id", h.GetContent)
}

// requestLogger returns the request-scoped logger set by the server middleware.
func (h *Handler) requestLogger(c *gin.Context) logger.Logger {
	return logger.FromContext(c.Request.Context(), h.log)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), decimalBase, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
