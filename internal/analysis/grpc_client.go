package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ashureev/interview-labs/internal/domain"
)

// analyzeMethod is the unary RPC exposed by the analysis service. Request and
// response are google.protobuf.Struct documents shaped like the HTTP JSON body.
const analyzeMethod = "/interview.analysis.v1.AnalysisService/Analyze"

var (
	errConnectionShutdown       = errors.New("connection shutdown")
	errConnectionStateUnchanged = errors.New("connection state did not change")
)

// GrpcScorer provides a gRPC client to the analysis service.
type GrpcScorer struct {
	conn           *grpc.ClientConn
	health         healthpb.HealthClient
	addr           string
	requestTimeout time.Duration
	logger         *slog.Logger
}

// GrpcClientConfig holds configuration for the gRPC client.
type GrpcClientConfig struct {
	Address          string
	ConnectTimeout   time.Duration
	RequestTimeout   time.Duration
	KeepaliveTime    time.Duration
	KeepaliveTimeout time.Duration
}

// DefaultGrpcClientConfig returns default configuration.
func DefaultGrpcClientConfig() GrpcClientConfig {
	return GrpcClientConfig{
		Address:          "localhost:50051",
		ConnectTimeout:   5 * time.Second,
		RequestTimeout:   30 * time.Second,
		KeepaliveTime:    2 * time.Minute,
		KeepaliveTimeout: 10 * time.Second,
	}
}

// NewGrpcScorer creates a client for the analysis service and waits up to
// ConnectTimeout for the channel to become ready. A service that is not ready
// yet is logged, not fatal: the channel keeps reconnecting and sessions fall
// back to local scoring until it recovers.
func NewGrpcScorer(cfg GrpcClientConfig, logger *slog.Logger) (*GrpcScorer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultGrpcClientConfig()
	if cfg.Address == "" {
		cfg.Address = defaults.Address
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaults.ConnectTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}
	if cfg.KeepaliveTime <= 0 {
		cfg.KeepaliveTime = defaults.KeepaliveTime
	}
	if cfg.KeepaliveTimeout <= 0 {
		cfg.KeepaliveTimeout = defaults.KeepaliveTimeout
	}

	kacp := keepalive.ClientParameters{
		Time:                cfg.KeepaliveTime,
		Timeout:             cfg.KeepaliveTimeout,
		PermitWithoutStream: false,
	}

	conn, err := grpc.NewClient(cfg.Address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(kacp),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis client for %s: %w", cfg.Address, err)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := waitForReady(connectCtx, conn); err != nil {
		logger.Warn("Analysis service not ready, scoring falls back until it recovers", "address", cfg.Address, "error", err)
	} else {
		logger.Info("Connected to analysis service", "address", cfg.Address)
	}

	return &GrpcScorer{
		conn:           conn,
		health:         healthpb.NewHealthClient(conn),
		addr:           cfg.Address,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger,
	}, nil
}

func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Idle:
			conn.Connect()
		case connectivity.Shutdown:
			return errConnectionShutdown
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w from %s", errConnectionStateUnchanged, state)
		}
	}
}

// Ping checks the standard gRPC health service of the analysis backend.
func (c *GrpcScorer) Ping(ctx context.Context) error {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("analysis service status %s", resp.GetStatus())
	}
	return nil
}

// Score implements Scorer.
func (c *GrpcScorer) Score(ctx context.Context, data domain.TranscriptData) (Payload, error) {
	req, err := structpb.NewStruct(transcriptFields(data))
	if err != nil {
		return nil, fmt.Errorf("encode transcript: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, analyzeMethod, req, resp); err != nil {
		c.logger.Warn("Analyze RPC failed", "error", err, "session_id", data.SessionID)
		return nil, fmt.Errorf("%w: %v", domain.ErrAnalysisUnavailable, err)
	}
	return Payload(resp.AsMap()), nil
}

// Close closes the gRPC connection.
func (c *GrpcScorer) Close() {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("failed to close gRPC connection", "error", err)
		}
	}
}

func transcriptFields(data domain.TranscriptData) map[string]any {
	return map[string]any{
		"session_id": data.SessionID,
		"questions":  stringsToAny(data.Questions),
		"answers":    stringsToAny(data.Answers),
		"industry":   data.Industry,
		"level":      string(data.Level),
		"modality":   string(data.Modality),
		"language":   string(data.Language),
	}
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
