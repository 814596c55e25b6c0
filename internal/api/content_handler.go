package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/jonesrussell/north-cloud/content-mirror/internal/logger"
)

// EditorSettings configures the visual editor for one page.
type EditorSettings struct {
	APIKey string `json:"apiKey"`
	URL    string `json:"url"`
	Model  string `json:"model"`
	Locale string `json:"locale"`
}

// GetPage returns the page for a path and locale.
// GET /api/v1/pages?path=/about&locale=sk
func (h *Handler) GetPage(c *gin.Context) {
	l := h.resolver.LocaleFor(c.Query("locale"))

	page, err := h.resolver.ResolvePage(c.Request.Context(), c.Query("path"), l)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
			return
		}
		h.requestLogger(c).Error("Failed to resolve page", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve page"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetSections returns one section per model for a path and locale.
// GET /api/v1/sections?path=/about&locale=sk
func (h *Handler) GetSections(c *gin.Context) {
	l := h.resolver.LocaleFor(c.Query("locale"))

	sections, err := h.resolver.ResolveSections(c.Request.Context(), c.Query("path"), l)
	if err != nil {
		h.requestLogger(c).Error("Failed to resolve sections", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve sections"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sections": sections,
		"count":    len(sections),
	})
}

// GetEditor returns editor settings.
// GET /api/v1/editor?model=page&path=/about&locale=sk
func (h *Handler) GetEditor(c *gin.Context) {
	model := c.Query("model")
	if model == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model is required"})
		return
	}

	c.JSON(http.StatusOK, EditorSettings{
		APIKey: h.apiKey,
		URL:    domain.NormalizePath(c.DefaultQuery("path", "/")),
		Model:  model,
		Locale: h.resolver.LocaleFor(c.Query("locale")).Locale,
	})
}

// GetContent returns a stored content record.
// GET /api/v1/admin/contents/:id
func (h *Handler) GetContent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	record, err := h.contentStore.FindByID(c.Request.Context(), id)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
			return
		}
		h.requestLogger(c).Error("Failed to load content", logger.Int64("content_id", id), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load content"})
		return
	}

	c.JSON(http.StatusOK, record)
}
