package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Brokers string
	Topic   string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	// Remote data sources.
	BoundariesURL  string
	ConcessionsURL string

	// Credential table; empty means built-in defaults.
	UsersFile  string
	SessionTTL time.Duration

	// Snapshot cache.
	RedisAddr      string
	RedisEnabled   bool
	CacheOpTimeout time.Duration
	CacheTTL       time.Duration
	MemSnapshots   int

	// H3 resolution of the point index used to prefilter containment tests.
	IndexRes int

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	res := getint("INDEX_RES", 7)
	if res < 0 {
		res = 0
	}
	if res > 15 {
		res = 15
	}

	return Config{
		Addr:     getenv("ADDR", ":8090"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		BoundariesURL:  getenv("BOUNDARIES_URL", "https://raw.githubusercontent.com/Moccamara/web_mapping/master/data/SE.geojson"),
		ConcessionsURL: getenv("CONCESSIONS_URL", "https://raw.githubusercontent.com/Moccamara/web_mapping/master/data/concession.csv"),

		UsersFile:  getenv("USERS_FILE", ""),
		SessionTTL: getduration("SESSION_TTL", 6*time.Hour),

		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RedisEnabled:   getbool("REDIS_ENABLED", false),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheTTL:       getduration("CACHE_TTL", 15*time.Minute),
		MemSnapshots:   getint("MEM_SNAPSHOTS", 8),

		IndexRes: res,

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("KAFKA_TOPIC", "dataset-invalidation"),
			GroupID: getenv("KAFKA_GROUP_ID", "se-atlas-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
