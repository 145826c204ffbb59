package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
)

// maxResponseSize bounds how much of an analysis response is read (1MB).
const maxResponseSize = 1 << 20

// HTTPScorer posts transcripts as JSON to the analysis endpoint.
type HTTPScorer struct {
	url    string
	apiKey string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPScorer creates an HTTP transport. A zero timeout defaults to 30s.
func NewHTTPScorer(url, apiKey string, timeout time.Duration, logger *slog.Logger) *HTTPScorer {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPScorer{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Score implements Scorer.
func (s *HTTPScorer) Score(ctx context.Context, data domain.TranscriptData) (Payload, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal transcript: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisUnavailable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Debug("failed to close analysis response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrAnalysisUnavailable, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var payload Payload
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrAnalysisUnavailable, err)
	}
	return payload, nil
}

// Close implements Scorer.
func (s *HTTPScorer) Close() {
	s.client.CloseIdleConnections()
}
