// Package config loads the thingscout application configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the fields thingscout needs to reach the Thingiverse API.
type Config struct {
	RootURL    string
	MessageURL string
	PageSize   int
	Token      string
}

const (
	defaultConfigPath = "~/.config/thingscout/config.toml"
	tokenEnvKey       = "THINGIVERSE_TOKEN"
)

// Load locates and parses the config file, falling back to defaults when
// missing. The API token is a secret and never lives in the TOML file: it
// comes from the THINGIVERSE_TOKEN environment variable, with a .env file
// in the working directory loaded first when present.
func Load(path string) (Config, error) {
	var cfg Config

	// Missing .env is fine; explicit env vars win over file values.
	_ = godotenv.Load()
	cfg.Token = strings.TrimSpace(os.Getenv(tokenEnvKey))

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		RootURL    string `toml:"root_url"`
		MessageURL string `toml:"message_url"`
		PageSize   int    `toml:"page_size"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.RootURL = strings.TrimSpace(raw.RootURL)
	cfg.MessageURL = strings.TrimSpace(raw.MessageURL)
	if raw.PageSize > 0 {
		cfg.PageSize = raw.PageSize
	}

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
