// ABOUTME: Centralized configuration for the Coverly advisor
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the advisor.
type Config struct {
	// OpenAI settings
	OpenAIKey string
	ChatModel string
	Timeout   time.Duration

	// Generation temperatures per stage. Draft and Review run cold for
	// factual consistency; Present runs warmer for natural phrasing.
	DraftTemperature   float64
	ReviewTemperature  float64
	PresentTemperature float64

	// Output-length budgets per call
	ClassifierMaxTokens int
	DraftMaxTokens      int
	ReviewMaxTokens     int
	PresentMaxTokens    int

	// Ratebook settings
	RatebookPath string

	// History bounding before the transcript is handed to the core
	HistoryMessageLimit int
	HistoryTokenLimit   int

	// Storage backends
	PolicyBackend     string // "memory" or "charm"
	TranscriptBackend string // "memory" or "redis"
	RedisURL          string
	CharmDBName       string

	// Optional MCP tool server for structured data lookups
	ToolServerCommand string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		ChatModel:           getEnv("ADVISOR_OPENAI_MODEL", "gpt-4o-mini"),
		Timeout:             getEnvDuration("ADVISOR_OPENAI_TIMEOUT", 30*time.Second),
		DraftTemperature:    getEnvFloat("ADVISOR_DRAFT_TEMPERATURE", 0.2),
		ReviewTemperature:   getEnvFloat("ADVISOR_REVIEW_TEMPERATURE", 0.2),
		PresentTemperature:  getEnvFloat("ADVISOR_PRESENT_TEMPERATURE", 0.7),
		ClassifierMaxTokens: getEnvInt("ADVISOR_CLASSIFIER_MAX_TOKENS", 200),
		DraftMaxTokens:      getEnvInt("ADVISOR_DRAFT_MAX_TOKENS", 700),
		ReviewMaxTokens:     getEnvInt("ADVISOR_REVIEW_MAX_TOKENS", 700),
		PresentMaxTokens:    getEnvInt("ADVISOR_PRESENT_MAX_TOKENS", 700),
		RatebookPath:        os.Getenv("ADVISOR_RATEBOOK_PATH"),
		HistoryMessageLimit: getEnvInt("ADVISOR_HISTORY_MESSAGES", 20),
		HistoryTokenLimit:   getEnvInt("ADVISOR_HISTORY_TOKENS", 4000),
		PolicyBackend:       getEnv("ADVISOR_POLICY_BACKEND", "memory"),
		TranscriptBackend:   getEnv("ADVISOR_TRANSCRIPT_BACKEND", "memory"),
		RedisURL:            getEnv("ADVISOR_REDIS_URL", "redis://localhost:6379/0"),
		CharmDBName:         getEnv("ADVISOR_CHARM_DB", "coverly-policies"),
		ToolServerCommand:   os.Getenv("ADVISOR_TOOL_SERVER"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	for name, temp := range map[string]float64{
		"ADVISOR_DRAFT_TEMPERATURE":   c.DraftTemperature,
		"ADVISOR_REVIEW_TEMPERATURE":  c.ReviewTemperature,
		"ADVISOR_PRESENT_TEMPERATURE": c.PresentTemperature,
	} {
		if temp < 0 || temp > 2 {
			return fmt.Errorf("%s must be 0-2, got %f", name, temp)
		}
	}
	for name, n := range map[string]int{
		"ADVISOR_CLASSIFIER_MAX_TOKENS": c.ClassifierMaxTokens,
		"ADVISOR_DRAFT_MAX_TOKENS":      c.DraftMaxTokens,
		"ADVISOR_REVIEW_MAX_TOKENS":     c.ReviewMaxTokens,
		"ADVISOR_PRESENT_MAX_TOKENS":    c.PresentMaxTokens,
		"ADVISOR_HISTORY_MESSAGES":      c.HistoryMessageLimit,
		"ADVISOR_HISTORY_TOKENS":        c.HistoryTokenLimit,
	} {
		if n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, n)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("ADVISOR_OPENAI_TIMEOUT must be positive, got %s", c.Timeout)
	}
	switch c.PolicyBackend {
	case "memory", "charm":
	default:
		return fmt.Errorf("ADVISOR_POLICY_BACKEND must be memory or charm, got %q", c.PolicyBackend)
	}
	switch c.TranscriptBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("ADVISOR_TRANSCRIPT_BACKEND must be memory or redis, got %q", c.TranscriptBackend)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
