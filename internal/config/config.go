package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Catalog sources selectable through CATALOG_SOURCE.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceNeo4j    = "neo4j"
)

type Config struct {
	CatalogSource    string
	CatalogPath      string
	DatabaseURL      string
	Neo4jURI         string
	Neo4jUser        string
	Neo4jPassword    string
	WorkerCount      int
	PatternCacheSize int
	ToleranceRatio   float64
	LogLevel         string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		CatalogSource:    getEnv("CATALOG_SOURCE", SourceFile),
		CatalogPath:      getEnv("CATALOG_PATH", "catalog.yaml"),
		DatabaseURL:      getEnv("DATABASE_URL", "postgres://localhost:5432/item_appraiser?sslmode=disable"),
		Neo4jURI:         getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:        getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:    getEnv("NEO4J_PASSWORD", "password"),
		WorkerCount:      getEnvInt("WORKER_COUNT", 8),
		PatternCacheSize: getEnvInt("PATTERN_CACHE_SIZE", 4096),
		ToleranceRatio:   getEnvFloat("TOLERANCE_RATIO", 0.5),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid float, using default")
		return fallback
	}
	return f
}
