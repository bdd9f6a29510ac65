package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultTopK is used for variants that do not set top_k
const DefaultTopK = 3

// Config holds the application configuration
type Config struct {
	Server    ServerConfig             `koanf:"server"`
	CORS      CORSConfig               `koanf:"cors"`
	RateLimit RateLimitConfig          `koanf:"rate_limit"`
	Logging   LoggingConfig            `koanf:"logging"`
	History   HistoryConfig            `koanf:"history"`
	Variants  map[string]VariantConfig `koanf:"variants"`

	// Version is stamped by the CLI, never read from config sources
	Version string `koanf:"-"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for http.Server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CORSConfig mirrors go-chi/cors options
type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

// RateLimitConfig controls per-IP request limiting on /api
type RateLimitConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// LoggingConfig is passed through to logging.Init
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// HistoryConfig controls the saved-preferences store
type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	DBPath  string `koanf:"db_path"`
}

// VariantConfig describes one prediction variant: which artifact bundle it
// serves, under which route, and whether results are enriched.
type VariantConfig struct {
	// Route is the path segment under /api/predict/
	Route string `koanf:"route"`

	// ArtifactDir is a bundle directory or a .zip archive of one
	ArtifactDir string `koanf:"artifact_dir"`

	// Enrich attaches destination_info to responses
	Enrich bool `koanf:"enrich"`

	// DestinationInfoPath overrides the table inside the bundle (.json or .db)
	DestinationInfoPath string `koanf:"destination_info_path"`

	// Strict makes vocabulary/schema mismatches fatal at startup
	Strict bool `koanf:"strict"`

	TopK       int        `koanf:"top_k"`
	Vocabulary Vocabulary `koanf:"vocabulary"`
}

// Vocabulary lists the preference values clients are expected to send.
// It is checked against the bundle's feature columns at startup.
type Vocabulary struct {
	Activities       []string `koanf:"activities"`
	DestinationTypes []string `koanf:"destination_types"`
	Budgets          []string `koanf:"budgets"`
	Durations        []string `koanf:"durations"`
}

// VariantNames returns configured variant names in stable order
func (c *Config) VariantNames() []string {
	names := make([]string, 0, len(c.Variants))
	for name := range c.Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyDefaults fills optional per-variant values left unset by config
// sources. Negative values are left for Validate to reject.
func (c *Config) applyDefaults() {
	for name, v := range c.Variants {
		if v.TopK == 0 {
			v.TopK = DefaultTopK
			c.Variants[name] = v
		}
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0) {
		problems = append(problems, "rate_limit requires requests >= 1 and a positive window")
	}
	if c.History.Enabled && c.History.DBPath == "" {
		problems = append(problems, "history.db_path is required when history is enabled")
	}
	if len(c.Variants) == 0 {
		problems = append(problems, "at least one variant must be configured")
	}

	routes := make(map[string]string)
	for _, name := range c.VariantNames() {
		v := c.Variants[name]
		if v.Route == "" {
			problems = append(problems, fmt.Sprintf("variants.%s.route is required", name))
		} else if other, dup := routes[v.Route]; dup {
			problems = append(problems, fmt.Sprintf("variants.%s.route %q already used by %s", name, v.Route, other))
		} else {
			routes[v.Route] = name
		}
		if v.ArtifactDir == "" {
			problems = append(problems, fmt.Sprintf("variants.%s.artifact_dir is required", name))
		}
		if v.TopK < 1 {
			problems = append(problems, fmt.Sprintf("variants.%s.top_k must be at least 1", name))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
