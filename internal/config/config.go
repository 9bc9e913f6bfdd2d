// Package config loads linkhoard configuration from the environment and an
// optional YAML file. The resulting Config is passed explicitly to every
// component that needs it; there are no ambient settings singletons.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Owner is the principal all store operations are scoped to.
	Owner string `yaml:"owner"`

	// Embedding
	EmbedProvider  string `yaml:"embed_provider"` // "ollama" or "openai"
	EmbedModel     string `yaml:"embed_model"`
	EmbedDimension int    `yaml:"embed_dimension"`
	OllamaHost     string `yaml:"ollama_host"`
	OpenAIAPIKey   string `yaml:"openai_api_key"`

	// DtypePreference is the fallback order of embedding precisions tried
	// when constructing the embedder ("f32", "q8", "q4").
	DtypePreference []string `yaml:"dtype_preference"`

	// SemanticSearchEnabled gates the indexing queue and search; when false
	// backfills clear the queue instead of starting.
	SemanticSearchEnabled bool `yaml:"semantic_search_enabled"`

	// Pipeline tuning
	ImportChunkSize   int           `yaml:"import_chunk_size"`
	EnrichConcurrency int           `yaml:"enrich_concurrency"`
	MetadataTimeout   time.Duration `yaml:"metadata_timeout"`

	// HashCachePath is where the bookmark-id -> content-hash cache lives.
	HashCachePath string `yaml:"hash_cache_path"`

	// Server
	ServerPort string `yaml:"server_port"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Load reads configuration, lowest precedence first: built-in defaults, then
// the YAML file named by LINKHOARD_CONFIG (if any), then environment
// variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("LINKHOARD_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}

	return Config{
		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "linkhoard",
		SurrealDBDatabase:  "bookmarks",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		Owner: "local",

		EmbedProvider:  "ollama",
		EmbedModel:     "nomic-embed-text",
		EmbedDimension: 768,
		OllamaHost:     "http://localhost:11434",

		DtypePreference: []string{"f32", "q8", "q4"},

		SemanticSearchEnabled: true,

		ImportChunkSize:   50,
		EnrichConcurrency: 5,
		MetadataTimeout:   10 * time.Second,

		HashCachePath: filepath.Join(cacheDir, "linkhoard", "hashcache.json"),

		ServerPort: "8487",

		LogFile:  DefaultLogFile(),
		LogLevel: slog.LevelInfo,
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setEnv(&cfg.SurrealDBURL, "SURREALDB_URL")
	setEnv(&cfg.SurrealDBNamespace, "SURREALDB_NAMESPACE")
	setEnv(&cfg.SurrealDBDatabase, "SURREALDB_DATABASE")
	setEnv(&cfg.SurrealDBUser, "SURREALDB_USER")
	setEnv(&cfg.SurrealDBPass, "SURREALDB_PASS")
	setEnv(&cfg.SurrealDBAuthLevel, "SURREALDB_AUTH_LEVEL")

	setEnv(&cfg.Owner, "LINKHOARD_OWNER")

	setEnv(&cfg.EmbedProvider, "LINKHOARD_EMBED_PROVIDER")
	setEnv(&cfg.EmbedModel, "LINKHOARD_EMBED_MODEL")
	setEnvInt(&cfg.EmbedDimension, "LINKHOARD_EMBED_DIMENSION")
	setEnv(&cfg.OllamaHost, "OLLAMA_HOST")
	setEnv(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")

	if v := os.Getenv("LINKHOARD_DTYPE_PREFERENCE"); v != "" {
		parts := strings.Split(v, ",")
		prefs := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				prefs = append(prefs, p)
			}
		}
		if len(prefs) > 0 {
			cfg.DtypePreference = prefs
		}
	}

	if v := os.Getenv("LINKHOARD_SEMANTIC_SEARCH"); v != "" {
		cfg.SemanticSearchEnabled = v == "true" || v == "1"
	}

	setEnvInt(&cfg.ImportChunkSize, "LINKHOARD_IMPORT_CHUNK_SIZE")
	setEnvInt(&cfg.EnrichConcurrency, "LINKHOARD_ENRICH_CONCURRENCY")
	if v := os.Getenv("LINKHOARD_METADATA_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MetadataTimeout = d
		}
	}

	setEnv(&cfg.HashCachePath, "LINKHOARD_HASH_CACHE")
	setEnv(&cfg.ServerPort, "LINKHOARD_SERVER_PORT")
	setEnv(&cfg.LogFile, "LINKHOARD_LOG_FILE")

	if v := os.Getenv("LINKHOARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
}

func setEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setEnvInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
