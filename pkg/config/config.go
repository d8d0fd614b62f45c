// Package config loads service configuration from the environment and
// drift tolerance profiles from YAML files.
package config

import (
	"os"
	"path/filepath"
)

// Config is the environment-driven service configuration. Everything
// has a usable default; nothing reads the environment after Load.
type Config struct {
	ServiceName     string // MAQUETTE_SERVICE_NAME
	LogLevel        string // LOG_LEVEL
	OTLPEndpoint    string // OTEL_EXPORTER_OTLP_ENDPOINT, empty disables export
	ArtifactBackend string // ARTIFACT_STORAGE_TYPE: fs, s3 or gcs
	DataDir         string // DATA_DIR
	LedgerDSN       string // LEDGER_DSN, empty means a JSONL ledger under DataDir
	RedisAddr       string // REDIS_ADDR, empty keeps the pack cache local-only
	ProfilePath     string // TOLERANCE_PROFILE, empty uses the compiled-in profile
	StrictGate      bool   // GATE_STRICT=true
}

// Load reads configuration from environment variables, applying
// defaults for anything unset.
func Load() *Config {
	return &Config{
		ServiceName:     envOr("MAQUETTE_SERVICE_NAME", "maquette"),
		LogLevel:        envOr("LOG_LEVEL", "INFO"),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ArtifactBackend: envOr("ARTIFACT_STORAGE_TYPE", "fs"),
		DataDir:         envOr("DATA_DIR", "data"),
		LedgerDSN:       os.Getenv("LEDGER_DSN"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		ProfilePath:     os.Getenv("TOLERANCE_PROFILE"),
		StrictGate:      os.Getenv("GATE_STRICT") == "true",
	}
}

// LedgerPath returns the DSN the decision ledger opens with: the
// configured DSN, or a JSONL file under the data directory.
func (c *Config) LedgerPath() string {
	if c.LedgerDSN != "" {
		return c.LedgerDSN
	}
	return "file:" + filepath.Join(c.DataDir, "gate_decisions.jsonl")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
