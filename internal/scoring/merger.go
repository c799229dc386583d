package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// MergeInput carries near-duplicate metadata to reconcile before a
// clipping is written.
type MergeInput struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
}

// MergeResult is the reconciled metadata.
type MergeResult struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
}

// Merger reconciles candidate metadata via an external service. Gated by
// the tenant's use_ai_merge setting; failures never change the dedup
// decision, only the stored content.
type Merger interface {
	Merge(ctx context.Context, input MergeInput) (MergeResult, error)
}

// HTTPMerger calls an external merge endpoint.
type HTTPMerger struct {
	client   *http.Client
	endpoint string
	secret   string
}

// NewHTTPMerger creates a merger backed by the given endpoint.
func NewHTTPMerger(client *http.Client, endpoint, secret string) *HTTPMerger {
	return &HTTPMerger{client: client, endpoint: endpoint, secret: secret}
}

// Merge posts the metadata to the merge endpoint and decodes the result.
func (m *HTTPMerger) Merge(ctx context.Context, input MergeInput) (MergeResult, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return MergeResult{}, fmt.Errorf("merger marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return MergeResult{}, fmt.Errorf("merger new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if m.secret != "" {
		req.Header.Set("X-Monitoring-Secret", m.secret)
	}

	resp, doErr := m.client.Do(req)
	if doErr != nil {
		return MergeResult{}, fmt.Errorf("merger do request: %w", doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return MergeResult{}, fmt.Errorf("merger unexpected status %d", resp.StatusCode)
	}

	var result MergeResult
	if decodeErr := json.NewDecoder(resp.Body).Decode(&result); decodeErr != nil {
		return MergeResult{}, fmt.Errorf("merger decode response: %w", decodeErr)
	}

	return result, nil
}
