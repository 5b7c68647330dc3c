package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings for a node. Values come from the
// environment, optionally seeded from a .env file.
type Config struct {
	HTTPAddr    string
	DatabaseDSN string

	NATSURL   string
	EmbedNATS bool
	NATSPort  int

	OpenAIKey   string
	OpenAIModel string
	SerpAPIKey  string

	// Debate loop tuning.
	DebateMaxRounds int
	DebateDelay     time.Duration

	// Participation gate.
	MinInterval     time.Duration
	MaxAutoMessages int

	// Funding-wait loop.
	FundingInterval    time.Duration
	FundingMaxAttempts int
	MinBalance         float64

	// Duplicate-event suppression window.
	DedupTTL time.Duration

	ChainID string
}

// Load reads configuration from the environment. A missing .env file is
// not an error.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	if os.Getenv("OPENAI_API_KEY") == "" {
		log.Println("Warning: OPENAI_API_KEY not set, agent replies will be empty")
	}
	if os.Getenv("SERP_API_KEY") == "" {
		log.Println("Warning: SERP_API_KEY not set, web research will be disabled")
	}

	return Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "conclave.db"),

		NATSURL:   getEnv("NATS_URL", "nats://localhost:4222"),
		EmbedNATS: getEnvBool("NATS_EMBED", true),
		NATSPort:  getEnvInt("NATS_PORT", 4222),

		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		SerpAPIKey:  os.Getenv("SERP_API_KEY"),

		DebateMaxRounds: getEnvInt("DEBATE_MAX_ROUNDS", 2),
		DebateDelay:     getEnvDuration("DEBATE_DELAY_MS", 1200*time.Millisecond),

		MinInterval:     getEnvDuration("GATE_MIN_INTERVAL_MS", 5000*time.Millisecond),
		MaxAutoMessages: getEnvInt("GATE_MAX_AUTO_MESSAGES", 5),

		FundingInterval:    getEnvDuration("FUNDING_INTERVAL_MS", 5000*time.Millisecond),
		FundingMaxAttempts: getEnvInt("FUNDING_MAX_ATTEMPTS", 120),
		MinBalance:         getEnvFloat("MIN_BALANCE", 0.01),

		DedupTTL: getEnvDuration("DEDUP_TTL_MS", 60000*time.Millisecond),

		ChainID: getEnv("CHAIN_ID", "conclave-local"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("Warning: invalid %s=%q, using %f", key, v, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("Warning: invalid %s=%q, using %t", key, v, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
		log.Printf("Warning: invalid %s=%q, using %s", key, v, fallback)
	}
	return fallback
}
