package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// dotenvFiles are tried in order; variables already present in the
// environment are never overridden.
var dotenvFiles = []string{".env", ".env.local"}

// parseEnv overlays variables from .env files and the process environment.
// Unset variables leave the current value untouched.
func parseEnv(cfg *Config) error {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return env.Parse(cfg)
}
