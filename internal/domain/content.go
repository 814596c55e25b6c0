// Package domain contains the core models of the content mirror.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a stored record does not exist.
var ErrNotFound = errors.New("record not found")

// ContentType distinguishes path-addressable pages from reusable sections.
type ContentType int

const (
	// ContentTypePage is produced by payloads of kind "page".
	ContentTypePage ContentType = 1
	// ContentTypeSection is produced by payloads of kind "component".
	ContentTypeSection ContentType = 2
)

// ContentTypeFromKind maps a payload meta kind to a ContentType.
func ContentTypeFromKind(kind string) (ContentType, bool) {
	switch kind {
	case "page":
		return ContentTypePage, true
	case "component":
		return ContentTypeSection, true
	default:
		return 0, false
	}
}

func (t ContentType) String() string {
	switch t {
	case ContentTypePage:
		return "page"
	case ContentTypeSection:
		return "section"
	default:
		return fmt.Sprintf("ContentType(%d)", int(t))
	}
}

// MarshalJSON renders the type by name.
func (t ContentType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Content is the stored, normalized tree: the block list plus component inputs.
type Content struct {
	Data ContentData `json:"data"`
}

// ContentData holds the blocks and inputs of a Content.
type ContentData struct {
	Blocks []any `json:"blocks"`
	Inputs any   `json:"inputs"`
}

// NewContent builds a Content, defaulting absent inputs to an empty list.
func NewContent(blocks []any, inputs any) Content {
	if blocks == nil {
		blocks = []any{}
	}
	if inputs == nil {
		inputs = []any{}
	}
	return Content{Data: ContentData{Blocks: blocks, Inputs: inputs}}
}

// EmptyContent is the tree used when a reference cannot be resolved.
func EmptyContent() Content {
	return NewContent(nil, nil)
}

// Value returns the content as a generic JSON value suitable for embedding in another tree.
func (c Content) Value() map[string]any {
	return map[string]any{
		"data": map[string]any{
			"blocks": c.Data.Blocks,
			"inputs": c.Data.Inputs,
		},
	}
}

// ContentRecord is a normalized, persisted unit of content keyed by ExternalID.
type ContentRecord struct {
	ID          int64          `json:"id"`
	Type        ContentType    `json:"type"`
	ExternalID  string         `json:"external_id"`
	ModelName   string         `json:"model"`
	Name        *string        `json:"name"`
	Title       *string        `json:"title"`
	Path        *string        `json:"path"`
	Locale      *string        `json:"locale"`
	Content     Content        `json:"content"`
	RawPayload  map[string]any `json:"-"`
	Fields      map[string]any `json:"fields"`
	PublishedAt *time.Time     `json:"published_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsPublished reports whether PublishedAt is set and not in the future.
func (r *ContentRecord) IsPublished(now time.Time) bool {
	return r.PublishedAt != nil && !r.PublishedAt.After(now)
}

// Publish stamps PublishedAt with now.
func (r *ContentRecord) Publish(now time.Time) {
	r.PublishedAt = &now
}

// Unpublish clears PublishedAt.
func (r *ContentRecord) Unpublish() {
	r.PublishedAt = nil
}

// Field returns the custom field name, or def when absent or null.
func (r *ContentRecord) Field(name string, def any) any {
	if v, ok := r.Fields[name]; ok && v != nil {
		return v
	}
	return def
}

// BoolField reads a custom field as a boolean. Strings "1", "true", "yes" and "on" count as true.
func (r *ContentRecord) BoolField(name string) bool {
	switch v := r.Field(name, false).(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		}
	}
	return false
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
