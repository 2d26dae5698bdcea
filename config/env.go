package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Env holds the settings read from the environment.
type Env struct {
	ConfigPath  string
	DBPath      string
	CacheDir    string
	Debug       bool
	LibsqlToken string
}

// LoadEnv reads RSPECFX_* variables. A .env file is expected to have been
// loaded by the caller.
func LoadEnv() Env {
	env := Env{
		ConfigPath:  os.Getenv("RSPECFX_CONFIG"),
		DBPath:      os.Getenv("RSPECFX_DB"),
		CacheDir:    os.Getenv("RSPECFX_CACHE_DIR"),
		LibsqlToken: os.Getenv("RSPECFX_LIBSQL_AUTH_TOKEN"),
	}

	if debugStr := os.Getenv("RSPECFX_DEBUG"); debugStr != "" {
		if debug, err := strconv.ParseBool(debugStr); err == nil {
			env.Debug = debug
		}
	}

	if env.CacheDir == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			env.CacheDir = filepath.Join(dir, "rspecfx")
		}
	}

	return env
}
