package config

import (
	"os"
	"strings"
	"time"
)

// Backend selects the persistence adapter the matching registry writes through.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// Server captures process-level configuration.
type Server struct {
	Addr               string
	PersistenceBackend Backend
	RedisURL           string
	PostgresURL        string
	BootstrapDemoData  bool
	AuditBrokers       []string
	AuditTopic         string
	PersistTimeout     time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("DUOMATCH_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	backend := Backend(os.Getenv("DUOMATCH_PERSISTENCE"))
	switch backend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		backend = BackendMemory
	}

	topic := os.Getenv("DUOMATCH_AUDIT_TOPIC")
	if topic == "" {
		topic = "duomatch.audit"
	}

	var brokers []string
	if raw := os.Getenv("DUOMATCH_AUDIT_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:               addr,
		PersistenceBackend: backend,
		RedisURL:           os.Getenv("DUOMATCH_REDIS_URL"),
		PostgresURL:        os.Getenv("DUOMATCH_POSTGRES_URL"),
		BootstrapDemoData:  os.Getenv("DUOMATCH_BOOTSTRAP_DEMO") == "true",
		AuditBrokers:       brokers,
		AuditTopic:         topic,
		PersistTimeout:     5 * time.Second,
	}
}

// RedisConfig carries connection tuning for the Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisFromEnv derives Redis connection settings with development defaults.
func RedisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("DUOMATCH_REDIS_URL"),
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
