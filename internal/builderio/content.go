package builderio

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

type listResponse struct {
	Results []map[string]any `json:"results"`
}

// ContentByID returns the full payload of one entry, including unpublished drafts.
// A missing entry yields ErrContentNotFound.
func (c *Client) ContentByID(ctx context.Context, model, id string) (map[string]any, error) {
	q := url.Values{}
	q.Set("apiKey", c.cfg.APIKey)
	q.Set("includeUnpublished", "true")
	q.Set("cachebust", "true")

	endpoint := fmt.Sprintf("%s/api/v3/content/%s/%s?%s",
		c.cfg.CDNURL, url.PathEscape(model), url.PathEscape(id), q.Encode())

	var payload map[string]any
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("content %s/%s: %w", model, id, ErrContentNotFound)
		}
		return nil, fmt.Errorf("fetch content %s/%s: %w", model, id, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("content %s/%s: %w", model, id, ErrContentNotFound)
	}

	return payload, nil
}

// ListContent returns one page of entries of model. An empty page marks the end.
func (c *Client) ListContent(ctx context.Context, model string, limit, offset int) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("apiKey", c.cfg.APIKey)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	endpoint := fmt.Sprintf("%s/api/v3/content/%s?%s", c.cfg.CDNURL, url.PathEscape(model), q.Encode())

	var page listResponse
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, fmt.Errorf("list content %s offset %d: %w", model, offset, err)
	}
	return page.Results, nil
}

// EachContent pages through every entry of model, calling fn for each, until an empty page.
func (c *Client) EachContent(ctx context.Context, model string, pageSize int, fn func(map[string]any) error) error {
	for offset := 0; ; offset += pageSize {
		page, err := c.ListContent(ctx, model, pageSize, offset)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		for _, item := range page {
			if err = fn(item); err != nil {
				return err
			}
		}
	}
}
