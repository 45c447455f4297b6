package main

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// ClientConfig is the CLI's persisted client configuration.
type ClientConfig struct {
	Server  string `toml:"server"`
	Token   string `toml:"token,omitempty"`
	NATSURL string `toml:"nats_url,omitempty"`
}

func clientConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "fleetdeck")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func loadClientConfig() (ClientConfig, error) {
	path, err := clientConfigPath()
	if err != nil {
		return ClientConfig{}, err
	}
	var cfg ClientConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return ClientConfig{}, nil
		}
		return ClientConfig{}, err
	}
	return cfg, nil
}

func saveClientConfig(cfg ClientConfig) error {
	path, err := clientConfigPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// Cached client config, loaded once per process.
var (
	clientConfigOnce   sync.Once
	cachedClientConfig ClientConfig
)

func activeClientConfig() ClientConfig {
	clientConfigOnce.Do(func() {
		cfg, err := loadClientConfig()
		if err != nil {
			return
		}
		cachedClientConfig = cfg
	})
	return cachedClientConfig
}

// activeNATSURL resolves the NATS URL for live watches: env first, then the
// client config file.
func activeNATSURL() string {
	if s := os.Getenv("FLEETDECK_NATS_URL"); s != "" {
		return s
	}
	return activeClientConfig().NATSURL
}
