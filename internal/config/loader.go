package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "FMRIMAP_"
)

// DefaultPath returns ~/.config/fmrimap/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "fmrimap", "config.yaml"), nil
}

// Load loads configuration from a YAML file, then overrides with environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (FMRIMAP_SCAN_MAX_DEPTH, FMRIMAP_LOGGING_LEVEL, ...)
//  2. YAML config file (~/.config/fmrimap/config.yaml unless configPath is set)
//  3. Built-in defaults
//
// A missing file is not an error. An explicitly named file that is missing is.
//
// Environment variables drop the FMRIMAP_ prefix, are lowercased and split on
// the first underscore only:
//
//	FMRIMAP_SCAN_MAX_DEPTH          -> scan.max_depth
//	FMRIMAP_MATERIALIZE_OUTPUT_DIR  -> materialize.output_dir
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	explicit := configPath != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	if _, err := os.Stat(configPath); err == nil {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envKey maps FMRIMAP_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// readConfigFile opens the file once and validates it through the open
// descriptor to avoid a TOCTOU race between the checks and the read.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", info.Name())
	}

	// Group or world writable files could redirect the output hierarchy.
	// Skip on Windows (different permission model)
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm&0o022 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (must not be group/world writable)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}

// applyDefaults restores defaults for values a file or environment blanked out.
func applyDefaults(cfg *Config) {
	def := Default()

	if len(cfg.Scan.MarkerFiles) == 0 && len(cfg.Scan.MarkerDirs) == 0 {
		cfg.Scan.MarkerFiles = def.Scan.MarkerFiles
		cfg.Scan.MarkerDirs = def.Scan.MarkerDirs
	}
	if cfg.Metadata.SubjectFile == "" {
		cfg.Metadata.SubjectFile = def.Metadata.SubjectFile
	}
	if cfg.Metadata.AcqpFile == "" {
		cfg.Metadata.AcqpFile = def.Metadata.AcqpFile
	}
	if cfg.Metadata.MethodFile == "" {
		cfg.Metadata.MethodFile = def.Metadata.MethodFile
	}
	if cfg.Store.FileName == "" {
		cfg.Store.FileName = def.Store.FileName
	}
	if cfg.Materialize.ConvertOperation == "" {
		cfg.Materialize.ConvertOperation = def.Materialize.ConvertOperation
	}
	if cfg.Materialize.FallbackLabel == "" {
		cfg.Materialize.FallbackLabel = def.Materialize.FallbackLabel
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = def.Logging.Output
	}
}
