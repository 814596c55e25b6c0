package builderio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonesrussell/north-cloud/content-mirror/internal/domain"
)

const modelsQuery = `{ models { id name } }`

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type modelsResponse struct {
	Data struct {
		Models []domain.ModelRef `json:"models"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// Models returns the full model catalog from the admin API.
func (c *Client) Models(ctx context.Context) ([]domain.ModelRef, error) {
	body, err := json.Marshal(graphQLRequest{Query: modelsQuery})
	if err != nil {
		return nil, fmt.Errorf("encode models query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AdminURL+"/api/v2/admin", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build models request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.PrivateKey)

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch models: %w", err)
	}
	defer resp.Body.Close()

	var decoded modelsResponse
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode models: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("fetch models: %s", decoded.Errors[0].Message)
	}

	return decoded.Data.Models, nil
}
