package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "vigil/pkg/platform/strings"
)

// Config captures process-level configuration. Built once in main from the
// environment so the rest of the tree receives plain values.
type Config struct {
	Addr string

	// Pipeline tuning.
	DebounceThreshold int           // consecutive violations before Confirmed
	EscalationAfter   time.Duration // unresolved Warning -> Critical
	SustainedTruancy  time.Duration // minimum hold before a truancy alert
	SustainedAudio    time.Duration // minimum hold before an audio alert
	AudioActiveDB     float64       // threshold while an expectation window is active
	AudioInactiveDB   float64       // threshold outside expectation windows
	LedgerBatchSize   int

	// Ingest protection. Limit 0 disables rate limiting.
	IngestRateLimit  int
	IngestRateWindow time.Duration

	RoleHierarchy []string          // highest authority first
	Departments   map[string]string // location -> responsible department
	TimetablePath string

	// Admin surface.
	JWTSigningKey string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// PostgresConfig wires the durable ledger store. Empty URL keeps the ledger
// in memory.
type PostgresConfig struct {
	URL string
}

// RedisConfig wires the alert suppression store. Empty URL falls back to the
// in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig wires the outbound alert sink and sealed-commit export.
// Empty Brokers keeps hand-off in process.
type KafkaConfig struct {
	Brokers     []string
	AlertTopic  string
	CommitTopic string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:              envStr("VIGIL_ADDR", ":8080"),
		DebounceThreshold: envInt("VIGIL_DEBOUNCE_THRESHOLD", 5),
		EscalationAfter:   envDur("VIGIL_ESCALATION_AFTER", 30*time.Second),
		SustainedTruancy:  envDur("VIGIL_SUSTAINED_TRUANCY", 5*time.Second),
		SustainedAudio:    envDur("VIGIL_SUSTAINED_AUDIO", 5*time.Second),
		AudioActiveDB:     envFloat("VIGIL_AUDIO_ACTIVE_DB", 40),
		AudioInactiveDB:   envFloat("VIGIL_AUDIO_INACTIVE_DB", 80),
		LedgerBatchSize:   envInt("VIGIL_LEDGER_BATCH_SIZE", 100),
		IngestRateLimit:   envInt("VIGIL_INGEST_RATE_LIMIT", 240),
		IngestRateWindow:  envDur("VIGIL_INGEST_RATE_WINDOW", time.Minute),
		RoleHierarchy:     envList("VIGIL_ROLE_HIERARCHY", nil),
		Departments:       envMap("VIGIL_DEPARTMENTS"),
		TimetablePath:     envStr("VIGIL_TIMETABLE_PATH", "data/timetable.csv"),
		JWTSigningKey:     envStr("VIGIL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Postgres: PostgresConfig{
			URL: os.Getenv("VIGIL_POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("VIGIL_REDIS_URL"),
			PoolSize:     envInt("VIGIL_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VIGIL_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDur("VIGIL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDur("VIGIL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDur("VIGIL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:     envList("VIGIL_KAFKA_BROKERS", nil),
			AlertTopic:  envStr("VIGIL_KAFKA_ALERT_TOPIC", "vigil.alerts"),
			CommitTopic: envStr("VIGIL_KAFKA_COMMIT_TOPIC", "vigil.ledger.commits"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envMap parses "key=value,key2=value2" pairs; malformed pairs are skipped.
func envMap(key string) map[string]string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		out[k] = val
	}
	return out
}

// envList parses comma-separated values, dropping blanks and duplicates.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	out := platformstrings.DedupeAndTrim(strings.Split(v, ","))
	if len(out) == 0 {
		return fallback
	}
	return out
}
