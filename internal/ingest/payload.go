package ingest

import (
	"encoding/json"
	"strings"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
	"github.com/mitchellh/mapstructure"
)

const (
	queryType     = "@builder.io/core:Query"
	queryProperty = "urlPath"
	queryOperator = "is"
)

// reservedDataKeys are modeled as first-class columns and never copied into Fields.
var reservedDataKeys = map[string]struct{}{
	"blocksString": {},
	"locale":       {},
	"themeId":      {},
	"title":        {},
	"inputs":       {},
	"blocks":       {},
	"state":        {},
	"url":          {},
}

// Draft is what a raw payload yields before model resolution and tree normalization.
type Draft struct {
	Type       domain.ContentType
	ExternalID string
	ModelID    string
	Name       *string
	Title      *string
	Path       *string
	Locale     *string
	Content    domain.Content
	Fields     map[string]any
	Published  bool
}

// SkipReason explains why a payload produced no Draft.
type SkipReason string

const (
	SkipNotContent SkipReason = "not a content payload"
	SkipMissingID  SkipReason = "missing id"
	SkipNoModel    SkipReason = "missing model id"
	SkipNoTree     SkipReason = "no block tree"
)

// Extract reads a remote payload into a Draft. A non-empty SkipReason means the payload must be
// ignored.
func Extract(payload map[string]any) (Draft, SkipReason) {
	kind, _ := stringAt(payload, "meta", "kind")
	contentType, ok := domain.ContentTypeFromKind(kind)
	if !ok {
		return Draft{}, SkipNotContent
	}

	id, _ := stringAt(payload, "id")
	if id == "" {
		return Draft{}, SkipMissingID
	}
	modelID, _ := stringAt(payload, "modelId")
	if modelID == "" {
		return Draft{}, SkipNoModel
	}

	data, _ := payload["data"].(map[string]any)
	content, ok := buildContent(data)
	if !ok {
		return Draft{}, SkipNoTree
	}

	name, _ := stringAt(payload, "name")
	title, _ := stringAt(data, "title")
	published, _ := stringAt(payload, "published")

	draft := Draft{
		Type:       contentType,
		ExternalID: id,
		ModelID:    modelID,
		Name:       domain.StringPtr(name),
		Title:      domain.StringPtr(title),
		Path:       extractPath(payload["query"]),
		Locale:     extractLocale(data),
		Content:    content,
		Fields:     extractFields(data),
		Published:  published == "published",
	}
	return draft, ""
}

// buildContent prefers the serialized blocksString form over the structured blocks list.
// An unparsable blocksString yields no tree.
func buildContent(data map[string]any) (domain.Content, bool) {
	if data == nil {
		return domain.Content{}, false
	}

	var blocks []any
	if raw, ok := data["blocksString"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &blocks); err != nil || blocks == nil {
			return domain.Content{}, false
		}
	} else {
		list, ok := data["blocks"].([]any)
		if !ok {
			return domain.Content{}, false
		}
		blocks = list
	}

	var inputs any
	if v, ok := data["inputs"]; ok && !isEmpty(v) {
		inputs = v
	}
	return domain.NewContent(blocks, inputs), true
}

type queryPredicate struct {
	Type     string `mapstructure:"@type"`
	Property string `mapstructure:"property"`
	Operator string `mapstructure:"operator"`
	Value    any    `mapstructure:"value"`
}

// extractPath finds the "urlPath is X" predicate in the targeting query.
func extractPath(query any) *string {
	items, ok := query.([]any)
	if !ok {
		return nil
	}

	for _, item := range items {
		var predicate queryPredicate
		if err := mapstructure.Decode(item, &predicate); err != nil {
			continue
		}
		if predicate.Type != queryType || predicate.Property != queryProperty || predicate.Operator != queryOperator {
			continue
		}
		value, ok := predicate.Value.(string)
		if !ok || strings.TrimSpace(value) == "" {
			return nil
		}
		path := domain.NormalizePath(value)
		return &path
	}
	return nil
}

func extractLocale(data map[string]any) *string {
	if locale, ok := data["locale"].(string); ok {
		return &locale
	}
	return nil
}

func extractFields(data map[string]any) map[string]any {
	fields := make(map[string]any, len(data))
	for key, value := range data {
		if _, reserved := reservedDataKeys[key]; reserved {
			continue
		}
		fields[key] = value
	}
	return fields
}

func stringAt(m map[string]any, keys ...string) (string, bool) {
	var cur any = m
	for _, key := range keys {
		node, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur = node[key]
	}
	s, ok := cur.(string)
	return s, ok
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case string:
		return t == ""
	case bool:
		return !t
	}
	return false
}
