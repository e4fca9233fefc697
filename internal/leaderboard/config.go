package leaderboard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const configDirName = ".pinchbench"

// Config is the persisted client configuration.
type Config struct {
	Token    string `json:"token,omitempty"`
	ClaimURL string `json:"claim_url,omitempty"`
}

// ConfigPath returns the config file location (~/.pinchbench/config.json).
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	return filepath.Join(home, configDirName, "config.json"), nil
}

func readConfig() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		// A corrupt config is treated as absent.
		return Config{}, nil
	}
	return config, nil
}

// SaveToken persists the token (and optional claim URL) to the config file
// and returns its path.
func SaveToken(token, claimURL string) (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}

	config, _ := readConfig()
	config.Token = token
	if claimURL != "" {
		config.ClaimURL = claimURL
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}
