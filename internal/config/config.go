// Package config loads spatch settings from defaults, an optional TOML file,
// the environment and command-line overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/xeipuuv/gojsonschema"
)

const (
	// DefaultFile is read when it exists and no file was named explicitly.
	DefaultFile = ".spatch.toml"
	// EnvPrefix marks environment variables that override file settings,
	// e.g. SPATCH_OUTPUT_DIR.
	EnvPrefix = "SPATCH_"
)

// Config holds the merged settings.
type Config struct {
	OutputDir   string `koanf:"output_dir"`
	OnCollision string `koanf:"on_collision"`
	LogLevel    string `koanf:"log_level"`
	Verify      bool   `koanf:"verify"`
	// Color is auto, always or never.
	Color string `koanf:"color"`
}

// Defaults returns the baseline settings.
func Defaults() map[string]any {
	return map[string]any{
		"output_dir":   "",
		"on_collision": "overwrite",
		"log_level":    "info",
		"verify":       false,
		"color":        "auto",
	}
}

var knownKeys = Defaults()

// Options controls where Load looks for settings.
type Options struct {
	// Path names the TOML file. When empty DefaultFile is tried and a
	// missing file is ignored; an explicit path must exist.
	Path string
	// EnvFile is loaded into the process environment with godotenv before
	// the environment is read. Empty means ".env"; a missing file is fine.
	EnvFile string
	// Overrides are applied last, typically from command-line flags.
	Overrides map[string]any
}

// Load merges all configuration layers and validates the result.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		// A missing .env file is fine, anything else is reported.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	path := opts.Path
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("config: apply overrides: %w", err)
		}
	}

	if err := validate(k.Raw()); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// envValue maps SPATCH_LOG_LEVEL to log_level and drops unknown variables.
func envValue(key, value string) (string, any) {
	name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if _, ok := knownKeys[name]; !ok {
		return "", nil
	}
	if name == "verify" {
		if b, err := strconv.ParseBool(value); err == nil {
			return name, b
		}
	}
	return name, value
}

const schemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "output_dir": {"type": "string"},
    "on_collision": {"enum": ["overwrite", "error", "suffix"]},
    "log_level": {"type": "string", "pattern": "^(?i:debug|info|warn|warning|error)$"},
    "verify": {"type": "boolean"},
    "color": {"enum": ["auto", "always", "never"]}
  }
}`

var (
	schemaLoader     gojsonschema.JSONLoader
	schemaLoaderOnce sync.Once
)

// ValidationError lists every schema violation found in the merged settings.
type ValidationError struct {
	Issues []string
}

func (e ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid settings"
	}
	return "config: " + strings.Join(e.Issues, "; ")
}

func validate(raw map[string]any) error {
	schemaLoaderOnce.Do(func() {
		schemaLoader = gojsonschema.NewStringLoader(schemaJSON)
	})
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("config: schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return ValidationError{Issues: issues}
}
