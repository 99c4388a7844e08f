// Package config loads runtime settings from an optional dotenv file and
// AURIS_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all tunable settings with their resolved defaults.
type Config struct {
	DataDir     string // base directory for catalog, stats and logs
	LibraryDir  string // directory scanned for audio files
	CatalogPath string
	StatsPath   string
	LogPath     string
	LogLevel    string

	VisualizerFPS int

	// Optional S3-compatible blob storage. When Endpoint is empty the
	// library stores audio blobs on the local filesystem.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// Load resolves configuration. A missing dotenv file is not an error;
// environment variables always win over file values.
func Load() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".auris")

	// Best effort: the config file is optional.
	_ = godotenv.Load(filepath.Join(dataDir, "config"))

	cfg := Config{
		DataDir:        envOr("AURIS_DATA_DIR", dataDir),
		LibraryDir:     envOr("AURIS_LIBRARY_DIR", filepath.Join(home, "Music")),
		LogLevel:       envOr("AURIS_LOG_LEVEL", "info"),
		VisualizerFPS:  envInt("AURIS_VISUALIZER_FPS", 30),
		MinioEndpoint:  os.Getenv("AURIS_MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("AURIS_MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("AURIS_MINIO_SECRET_KEY"),
		MinioBucket:    envOr("AURIS_MINIO_BUCKET", "auris"),
		MinioUseSSL:    envBool("AURIS_MINIO_USE_SSL", false),
	}

	cfg.CatalogPath = envOr("AURIS_CATALOG_PATH", filepath.Join(cfg.DataDir, "catalog.json"))
	cfg.StatsPath = envOr("AURIS_STATS_PATH", filepath.Join(cfg.DataDir, "stats.json"))
	cfg.LogPath = envOr("AURIS_LOG_PATH", filepath.Join(cfg.DataDir, "auris.log"))

	if cfg.VisualizerFPS < 1 || cfg.VisualizerFPS > 60 {
		cfg.VisualizerFPS = 30
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
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

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
