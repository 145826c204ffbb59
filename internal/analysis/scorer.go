// Package analysis scores finished sessions through a remote analysis service
// and falls back to a local heuristic whenever that service cannot be used.
package analysis

import (
	"context"

	"github.com/ashureev/interview-labs/internal/domain"
)

// Payload is the loosely-typed, Analysis-shaped document returned by a scorer.
// It is validated and clamped by the Requester, never trusted as-is.
type Payload map[string]any

// Scorer is a transport to the external analysis service.
// It is implemented by the HTTP and gRPC clients.
type Scorer interface {
	// Score sends the transcript and returns the raw response document.
	Score(ctx context.Context, data domain.TranscriptData) (Payload, error)

	// Close releases resources.
	Close()
}

// Ensure the transports implement Scorer.
var (
	_ Scorer = (*HTTPScorer)(nil)
	_ Scorer = (*GrpcScorer)(nil)
)
