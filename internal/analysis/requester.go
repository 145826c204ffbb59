package analysis

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
)

// Requester produces an Analysis for a finished session. Analyze is total:
// any transport or payload failure degrades to the fallback heuristic.
type Requester struct {
	scorer  Scorer
	timeout time.Duration
	rng     *lockedRand
	logger  *slog.Logger
}

// RequesterOption configures a Requester.
type RequesterOption func(*Requester)

// WithRand injects the random source used for fallback jitter.
func WithRand(r *rand.Rand) RequesterOption {
	return func(q *Requester) {
		if r != nil {
			q.rng = &lockedRand{r: r}
		}
	}
}

// WithTimeout bounds a single scoring call. Zero disables the extra bound.
func WithTimeout(d time.Duration) RequesterOption {
	return func(q *Requester) {
		q.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RequesterOption {
	return func(q *Requester) {
		if l != nil {
			q.logger = l
		}
	}
}

// NewRequester creates a Requester. A nil scorer always uses the fallback.
func NewRequester(scorer Scorer, opts ...RequesterOption) *Requester {
	q := &Requester{
		scorer:  scorer,
		timeout: 30 * time.Second,
		rng:     &lockedRand{r: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Analyze scores data remotely and falls back locally on any failure.
func (q *Requester) Analyze(ctx context.Context, data domain.TranscriptData) domain.Analysis {
	analysis, err := q.remote(ctx, data)
	if err == nil {
		return analysis
	}

	q.logger.Warn("analysis unavailable, using fallback scoring",
		"session_id", data.SessionID,
		"kind", domain.KindAnalysisUnavailable,
		"error", err,
	)
	return fallback(data.Answers, q.rng)
}

func (q *Requester) remote(ctx context.Context, data domain.TranscriptData) (a domain.Analysis, err error) {
	if q.scorer == nil {
		return domain.Analysis{}, errors.New("no analysis transport configured")
	}

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("analysis scorer panicked", "session_id", data.SessionID, "panic", r)
			a, err = domain.Analysis{}, errors.New("analysis scorer panicked")
		}
	}()

	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	payload, err := q.scorer.Score(ctx, data)
	if err != nil {
		return domain.Analysis{}, err
	}
	return parsePayload(payload, data.Answers)
}

// Close releases the underlying transport.
func (q *Requester) Close() {
	if q.scorer != nil {
		q.scorer.Close()
	}
}
