// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	Store       StoreConfig
	Redis       RedisConfig
	Analysis    AnalysisConfig
	Voice       VoiceConfig
	Session     SessionConfig
	Timeout     TimeoutConfig
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Driver   string // "sqlite" or "postgres"
	DBPath   string
	DSN      string
	MaxConns int
}

// RedisConfig configures the completed-session feed. Empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int
}

// AnalysisConfig configures the remote scorer. Empty endpoints select the
// local fallback scorer.
type AnalysisConfig struct {
	Transport string // "http" or "grpc"
	URL       string
	APIKey    string
	GRPCAddr  string
	Timeout   time.Duration
}

// VoiceConfig configures the conversational-voice service.
type VoiceConfig struct {
	URL            string
	APIKey         string
	ConnectTimeout time.Duration
	StopGrace      time.Duration
	StopTimeout    time.Duration
}

// SessionConfig controls question selection and retention of finished sessions.
type SessionConfig struct {
	QuestionBankPath    string
	QuestionsPerSession int
	Retention           time.Duration
	ReapInterval        time.Duration
	DefaultLanguage     string
}

// TimeoutConfig bounds request-scoped waits.
type TimeoutConfig struct {
	HealthCheck time.Duration
	AnswerWait  time.Duration
	Shutdown    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		Store: StoreConfig{
			Driver:   strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
			DBPath:   getEnv("DB_PATH", "./data/interview.db"),
			DSN:      getEnv("DATABASE_DSN", ""),
			MaxConns: getEnvInt("DATABASE_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Stream:   getEnv("REDIS_STREAM", "interview:sessions:completed"),
			MaxLen:   getEnvInt("REDIS_STREAM_MAXLEN", 10000),
		},
		Analysis: AnalysisConfig{
			Transport: strings.ToLower(getEnv("ANALYSIS_TRANSPORT", "http")),
			URL:       getEnv("ANALYSIS_URL", ""),
			APIKey:    getEnv("ANALYSIS_API_KEY", ""),
			GRPCAddr:  getEnv("ANALYSIS_GRPC_ADDR", ""),
			Timeout:   getEnvDuration("ANALYSIS_TIMEOUT", 30*time.Second),
		},
		Voice: VoiceConfig{
			URL:            getEnv("VOICE_WS_URL", ""),
			APIKey:         getEnv("VOICE_API_KEY", ""),
			ConnectTimeout: getEnvDuration("VOICE_CONNECT_TIMEOUT", 15*time.Second),
			StopGrace:      getEnvDuration("VOICE_STOP_GRACE", 2*time.Second),
			StopTimeout:    getEnvDuration("VOICE_STOP_TIMEOUT", 10*time.Second),
		},
		Session: SessionConfig{
			QuestionBankPath:    getEnv("QUESTION_BANK_PATH", ""),
			QuestionsPerSession: getEnvInt("QUESTIONS_PER_SESSION", 5),
			Retention:           getEnvDuration("SESSION_RETENTION", 30*time.Minute),
			ReapInterval:        getEnvDuration("SESSION_REAP_INTERVAL", time.Minute),
			DefaultLanguage:     strings.ToLower(getEnv("DEFAULT_LANGUAGE", "en")),
		},
		Timeout: TimeoutConfig{
			HealthCheck: getEnvDuration("HEALTH_CHECK_TIMEOUT", 5*time.Second),
			AnswerWait:  getEnvDuration("ANSWER_WAIT_TIMEOUT", 45*time.Second),
			Shutdown:    getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be sqlite or postgres, got %q", c.Store.Driver)
	}
	switch c.Analysis.Transport {
	case "http", "grpc":
	default:
		return fmt.Errorf("ANALYSIS_TRANSPORT must be http or grpc, got %q", c.Analysis.Transport)
	}
	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT must be > 0")
	}
	if c.Voice.StopGrace < time.Second || c.Voice.StopGrace > 3*time.Second {
		return fmt.Errorf("VOICE_STOP_GRACE must be between 1s and 3s, got %s", c.Voice.StopGrace)
	}
	if c.Voice.StopTimeout <= 0 || c.Voice.ConnectTimeout <= 0 {
		return fmt.Errorf("VOICE_STOP_TIMEOUT and VOICE_CONNECT_TIMEOUT must be > 0")
	}
	if c.Session.QuestionsPerSession <= 0 {
		return fmt.Errorf("QUESTIONS_PER_SESSION must be > 0")
	}
	if c.Session.Retention <= 0 || c.Session.ReapInterval <= 0 {
		return fmt.Errorf("SESSION_RETENTION and SESSION_REAP_INTERVAL must be > 0")
	}
	switch c.Session.DefaultLanguage {
	case "en", "hi":
	default:
		return fmt.Errorf("DEFAULT_LANGUAGE must be en or hi, got %q", c.Session.DefaultLanguage)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
