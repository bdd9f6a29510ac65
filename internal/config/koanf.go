package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when no explicit path is given
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tripcast/config.yaml",
}

// Preference vocabularies offered by the trip-planner frontend
var (
	defaultActivities = []string{
		"Scuba Diving", "Snorkeling", "Hiking", "Photography", "Food Tours", "Shopping",
		"Museum Visits", "Water Sports", "Camping", "Rock Climbing", "Wildlife Safari", "Local Festivals",
	}
	defaultDestinationTypes = []string{
		"Beaches", "Adventure", "Mountains", "Cities", "Cultural", "Wildlife",
		"Historical", "Rural", "Islands", "Deserts", "Forests", "Lakeside",
	}
	defaultBudgets   = []string{"Low", "Medium", "High"}
	defaultDurations = []string{"2-3 days", "4-5 days", "6-8 days", "9-12 days", "2 weeks+"}
)

func defaultVocabulary() Vocabulary {
	return Vocabulary{
		Activities:       append([]string(nil), defaultActivities...),
		DestinationTypes: append([]string(nil), defaultDestinationTypes...),
		Budgets:          append([]string(nil), defaultBudgets...),
		Durations:        append([]string(nil), defaultDurations...),
	}
}

// Default returns the built-in configuration before any file or env layer
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"http://localhost:5173", "https://smart-trip-planner-v1.vercel.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: 120,
			Window:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "./data/history.db",
		},
		Variants: map[string]VariantConfig{
			"india": {
				Route:       "india",
				ArtifactDir: "./models/india",
				Enrich:      true,
				TopK:        DefaultTopK,
				Vocabulary:  defaultVocabulary(),
			},
			"not_india": {
				Route:       "not-india",
				ArtifactDir: "./models/not_india",
				TopK:        DefaultTopK,
				Vocabulary:  defaultVocabulary(),
			},
		},
	}
}

// Load reads configuration in three layers: defaults, then an optional YAML
// file, then environment variables. path may be empty to search the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps supported environment variables to koanf paths.
// Anything not listed here is ignored, so unrelated env vars never leak in.
var envMappings = map[string]string{
	"http_host":        "server.host",
	"http_port":        "server.port",
	"shutdown_timeout": "server.shutdown_timeout",

	"cors_origins":           "cors.allowed_origins",
	"cors_allow_credentials": "cors.allow_credentials",

	"rate_limit_enabled":  "rate_limit.enabled",
	"rate_limit_requests": "rate_limit.requests",
	"rate_limit_window":   "rate_limit.window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"history_enabled": "history.enabled",
	"history_db_path": "history.db_path",

	"india_artifact_dir":          "variants.india.artifact_dir",
	"india_destination_info_path": "variants.india.destination_info_path",
	"india_strict":                "variants.india.strict",
	"not_india_artifact_dir":      "variants.not_india.artifact_dir",
	"not_india_strict":            "variants.not_india.strict",
}

func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}

// sliceConfigPaths arrive from env vars as comma-separated strings
var sliceConfigPaths = []string{
	"cors.allowed_origins",
	"cors.allowed_methods",
	"cors.allowed_headers",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
