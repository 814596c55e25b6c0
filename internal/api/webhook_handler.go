package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/webhook"
)

const invalidTokenMessage = "The authorization token is invalid."

// ReceiveWebhook stores a change notification and acknowledges it before processing.
// POST /_builder/webhook
func (h *Handler) ReceiveWebhook(c *gin.Context) {
	if err := webhook.Authorize(h.webhookToken, c.GetHeader("Authorization")); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": invalidTokenMessage})
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return
	}

	record, err := h.webhooks.Receive(c.Request.Context(), requestURL(c.Request), c.Request.Header, payload)
	if err != nil {
		fields := []logger.Field{logger.Error(err)}
		if record != nil {
			fields = append(fields, logger.WebhookID(record.ID))
		}
		h.requestLogger(c).Error("Failed to accept webhook", fields...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept webhook"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// GetWebhook returns a stored webhook record.
// GET /api/v1/admin/webhooks/:id
func (h *Handler) GetWebhook(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	record, err := h.webhookStore.FindByID(c.Request.Context(), id)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Webhook not found"})
			return
		}
		h.requestLogger(c).Error("Failed to load webhook", logger.WebhookID(id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load webhook"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// requestURL rebuilds the absolute URL the notification was posted to.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.Path
}
