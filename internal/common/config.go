package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Embeddings  EmbeddingsConfig `toml:"embeddings"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Markets     MarketsConfig    `toml:"markets"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
	WebSocket   WebSocketConfig  `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string  `toml:"path" validate:"required"`
	ResetOnStartup bool    `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	GCDiscardRatio float64 `toml:"gc_discard_ratio" validate:"gt=0,lt=1"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for log lines
}

// EmbeddingsConfig selects and configures the embedding provider
type EmbeddingsConfig struct {
	Mode      string                `toml:"mode" validate:"oneof=local gemini mock"`
	Dimension int                   `toml:"dimension" validate:"min=1"`
	Local     LocalEmbeddingConfig  `toml:"local"`
	Gemini    GeminiEmbeddingConfig `toml:"gemini"`
}

// LocalEmbeddingConfig points at a llama-server style embedding endpoint.
// The URL must resolve to localhost; remote endpoints are rejected.
type LocalEmbeddingConfig struct {
	URL       string `toml:"url"`
	Timeout   string `toml:"timeout"`    // Request timeout as duration string (default: "30s")
	RateLimit string `toml:"rate_limit"` // Minimum interval between requests (default: "50ms")
}

// GeminiEmbeddingConfig contains Google Gemini embedding API configuration
type GeminiEmbeddingConfig struct {
	APIKey    string `toml:"api_key"`    // Google Gemini API key
	Model     string `toml:"model"`      // Embedding model (default: "gemini-embedding-001")
	Timeout   string `toml:"timeout"`    // Request timeout as duration string (default: "1m")
	RateLimit string `toml:"rate_limit"` // Minimum interval between requests (default: "4s" for free tier)
}

// PipelineConfig tunes story consolidation and query behavior
type PipelineConfig struct {
	// SimilarityThreshold is the inclusive cosine similarity at which two
	// articles are considered the same story
	SimilarityThreshold float64 `toml:"similarity_threshold" validate:"gt=0,lte=1"`

	// MaxQueryResults caps how many stories a query returns
	MaxQueryResults int `toml:"max_query_results" validate:"min=1"`

	// QueryExpansionEnabled turns sector/regulator query expansion on or off
	QueryExpansionEnabled bool `toml:"query_expansion_enabled"`
}

// MarketsConfig configures market dictionaries and impact fan-out
type MarketsConfig struct {
	// DictionaryFile optionally overrides the compiled-in market
	// dictionaries with a YAML file
	DictionaryFile string `toml:"dictionary_file"`

	// FanoutEnabled expands sector tags into per-symbol impacts for every
	// company in that sector. Off by default: sector tags alone stay tags.
	FanoutEnabled bool `toml:"fanout_enabled"`
}

type SchedulerConfig struct {
	Enabled         bool   `toml:"enabled"`
	StoreGCSchedule string `toml:"store_gc_schedule"` // Cron schedule for badger value-log GC
	StatsSchedule   string `toml:"stats_schedule"`    // Cron schedule for corpus stats snapshot
}

// WebSocketConfig contains configuration for the live event feed
type WebSocketConfig struct {
	// ThrottleInterval limits per-story event broadcast frequency.
	// Duration string, e.g. "500ms".
	ThrottleInterval string `toml:"throttle_interval"`

	// AllowedEvents whitelists event types to broadcast. Empty allows all.
	AllowedEvents []string `toml:"allowed_events"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in sentio.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data",
				GCDiscardRatio: 0.5,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Embeddings: EmbeddingsConfig{
			Mode:      "local",
			Dimension: 384,
			Local: LocalEmbeddingConfig{
				URL:       "http://localhost:8081",
				Timeout:   "30s",
				RateLimit: "50ms",
			},
			Gemini: GeminiEmbeddingConfig{
				APIKey:    "", // User must provide API key (no fallback)
				Model:     "gemini-embedding-001",
				Timeout:   "1m",
				RateLimit: "4s", // 15 RPM for free tier
			},
		},
		Pipeline: PipelineConfig{
			SimilarityThreshold:   0.85,
			MaxQueryResults:       10,
			QueryExpansionEnabled: true,
		},
		Markets: MarketsConfig{
			DictionaryFile: "",
			FanoutEnabled:  false,
		},
		Scheduler: SchedulerConfig{
			Enabled:         true,
			StoreGCSchedule: "0 * * * *",    // Hourly value-log GC
			StatsSchedule:   "*/15 * * * *", // Corpus stats every 15 minutes
		},
		WebSocket: WebSocketConfig{
			ThrottleInterval: "500ms",
			AllowedEvents:    []string{},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: SENTIO_ENV, fallback: GO_ENV)
	if env := os.Getenv("SENTIO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("SENTIO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SENTIO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("SENTIO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if reset := os.Getenv("SENTIO_BADGER_RESET_ON_STARTUP"); reset != "" {
		if r, err := strconv.ParseBool(reset); err == nil {
			config.Storage.Badger.ResetOnStartup = r
		}
	}

	// Logging configuration
	if level := os.Getenv("SENTIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("SENTIO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("SENTIO_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Embeddings configuration
	if mode := os.Getenv("SENTIO_EMBEDDINGS_MODE"); mode != "" {
		config.Embeddings.Mode = mode
	}
	if dimension := os.Getenv("SENTIO_EMBEDDINGS_DIMENSION"); dimension != "" {
		if d, err := strconv.Atoi(dimension); err == nil {
			config.Embeddings.Dimension = d
		}
	}
	if url := os.Getenv("SENTIO_EMBEDDINGS_URL"); url != "" {
		config.Embeddings.Local.URL = url
	}
	if timeout := os.Getenv("SENTIO_EMBEDDINGS_TIMEOUT"); timeout != "" {
		config.Embeddings.Local.Timeout = timeout
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Embeddings.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("SENTIO_GEMINI_API_KEY"); apiKey != "" {
		config.Embeddings.Gemini.APIKey = apiKey // SENTIO_ prefix takes priority
	}
	if model := os.Getenv("SENTIO_GEMINI_MODEL"); model != "" {
		config.Embeddings.Gemini.Model = model
	}

	// Pipeline configuration
	if threshold := os.Getenv("SENTIO_SIMILARITY_THRESHOLD"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 64); err == nil {
			config.Pipeline.SimilarityThreshold = t
		}
	}
	if maxResults := os.Getenv("SENTIO_MAX_QUERY_RESULTS"); maxResults != "" {
		if m, err := strconv.Atoi(maxResults); err == nil {
			config.Pipeline.MaxQueryResults = m
		}
	}
	if expansion := os.Getenv("SENTIO_QUERY_EXPANSION_ENABLED"); expansion != "" {
		if e, err := strconv.ParseBool(expansion); err == nil {
			config.Pipeline.QueryExpansionEnabled = e
		}
	}

	// Markets configuration
	if dictFile := os.Getenv("SENTIO_MARKETS_DICTIONARY_FILE"); dictFile != "" {
		config.Markets.DictionaryFile = dictFile
	}
	if fanout := os.Getenv("SENTIO_MARKETS_FANOUT_ENABLED"); fanout != "" {
		if f, err := strconv.ParseBool(fanout); err == nil {
			config.Markets.FanoutEnabled = f
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("SENTIO_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration using go-playground/validator tags
// plus cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Embeddings.Mode == "local" && c.Embeddings.Local.URL == "" {
		return fmt.Errorf("invalid configuration: embeddings.local.url is required in local mode")
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
