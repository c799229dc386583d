package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPScorer calls an external scoring endpoint.
type HTTPScorer struct {
	client   *http.Client
	endpoint string
	secret   string
}

// NewHTTPScorer creates a scorer backed by the given endpoint.
func NewHTTPScorer(client *http.Client, endpoint, secret string) *HTTPScorer {
	return &HTTPScorer{client: client, endpoint: endpoint, secret: secret}
}

// Score posts the item to the scoring endpoint and decodes the result.
func (s *HTTPScorer) Score(ctx context.Context, input Input) (Result, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return Result{}, fmt.Errorf("scorer marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("scorer new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.secret != "" {
		req.Header.Set("X-Monitoring-Secret", s.secret)
	}

	resp, doErr := s.client.Do(req)
	if doErr != nil {
		return Result{}, fmt.Errorf("scorer do request: %w", doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("scorer unexpected status %d", resp.StatusCode)
	}

	var result Result
	if decodeErr := json.NewDecoder(resp.Body).Decode(&result); decodeErr != nil {
		return Result{}, fmt.Errorf("scorer decode response: %w", decodeErr)
	}

	return result, nil
}
