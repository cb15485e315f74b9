package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string
	BoltPath    string

	QueueCapacity     int
	CandidateCapacity int
	VoterBuckets      int

	OutboxBatchSize int
	RelayInterval   time.Duration

	SeedCandidates []CandidateSeed
}

// CandidateSeed is one "id:name" pair from SEED_CANDIDATES.
type CandidateSeed struct {
	CandidateID string
	DisplayName string
}

func Load() (Config, error) {
	// Local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "electionledger"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		BoltPath:    os.Getenv("BOLT_PATH"),

		QueueCapacity:     envInt("LEDGER_QUEUE_CAPACITY", 1000),
		CandidateCapacity: envInt("LEDGER_CANDIDATE_CAPACITY", 50),
		VoterBuckets:      envInt("LEDGER_VOTER_BUCKETS", 10000),

		OutboxBatchSize: envInt("OUTBOX_BATCH_SIZE", 100),
		RelayInterval:   envDuration("OUTBOX_RELAY_INTERVAL", 5*time.Second),

		SeedCandidates: parseSeedCandidates(os.Getenv("SEED_CANDIDATES")),
	}, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseSeedCandidates(raw string) []CandidateSeed {
	var seeds []CandidateSeed
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, name, found := strings.Cut(pair, ":")
		if !found {
			name = id
		}
		seeds = append(seeds, CandidateSeed{
			CandidateID: strings.TrimSpace(id),
			DisplayName: strings.TrimSpace(name),
		})
	}
	return seeds
}
