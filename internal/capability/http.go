package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/chainsense/internal/domain"
)

// HTTPCapability invokes a remote analytical service over HTTP. The
// request is posted as JSON to the configured endpoint and the response
// body must decode to a domain.AnalysisResult.
type HTTPCapability struct {
	name     string
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTPCapability creates a capability backed by a remote endpoint.
// A zero timeout falls back to 30 seconds.
func NewHTTPCapability(name, endpoint, token string, timeout time.Duration) *HTTPCapability {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPCapability{
		name:     name,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name returns the intent label this capability serves.
func (h *HTTPCapability) Name() string { return h.name }

// Analyze posts the request to the remote service and decodes its result.
func (h *HTTPCapability) Analyze(ctx context.Context, req Request) (*domain.AnalysisResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("capability error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Summary == "" {
		return nil, fmt.Errorf("capability %s returned an empty summary", h.name)
	}

	return &result, nil
}
