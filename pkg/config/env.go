package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the configuration file.
const (
	EnvRule          = "GLIDECOMP_OLC_RULE"
	EnvHandicap      = "GLIDECOMP_HANDICAP"
	EnvServerAddress = "GLIDECOMP_SERVER_ADDRESS"
	EnvDBPath        = "GLIDECOMP_DB_PATH"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv copies GLIDECOMP_* overrides into cfg.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvRule); v != "" {
		cfg.OLC.Rule = v
	}
	if v := os.Getenv(EnvHandicap); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvHandicap, v, err)
		}
		cfg.OLC.Handicap = h
	}
	if v := os.Getenv(EnvServerAddress); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DB.Path = v
	}
	return nil
}
