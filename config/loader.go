package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// configFileNames is the ordered list of config file names to search for.
var configFileNames = []string{
	".rspecfx.yml",
	".rspecfx.yaml",
	".rspecfx.toml",
}

// Discover returns the path of the first config file found in dir or one of
// its parents. It returns an empty string if no config file is found.
func Discover(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		for _, name := range configFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads a config file. If configPath is empty, Load searches from the
// working directory using Discover; without a file DefaultConfig is returned.
// Sections missing from the file keep their defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		configPath = Discover(wd)
	}

	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	user, err := Parse(data, formatOf(configPath))
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	cfg.merge(user)
	return cfg, nil
}

// Format names a config file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes a config document without applying defaults. TOML documents
// are decoded generically and re-read through the YAML mapping so both
// syntaxes share one layout.
func Parse(data []byte, format Format) (*Config, error) {
	if format == FormatTOML {
		var generic map[string]any
		if _, err := toml.Decode(string(data), &generic); err != nil {
			return nil, err
		}
		converted, err := yaml.Marshal(generic)
		if err != nil {
			return nil, err
		}
		data = converted
	}

	cfg := &Config{Cops: make(map[string]CopConfig)}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Cops == nil {
		cfg.Cops = make(map[string]CopConfig)
	}
	return cfg, nil
}
