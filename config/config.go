package config

import (
	"encoding/hex"
	"log/slog"
	"os"

	"github.com/yoyow-org/yoyow-core-sub001/crypto"
	"github.com/yoyow-org/yoyow-core-sub001/observability/logging"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ListenAddress     string   `toml:"ListenAddress"`
	RPCAddress        string   `toml:"RPCAddress"`
	DataDir           string   `toml:"DataDir"`
	WitnessSigningKey string   `toml:"WitnessSigningKey"`
	BootstrapPeers    []string `toml:"BootstrapPeers"`
}

// Load loads the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if cfg.WitnessSigningKey == "" {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		cfg.WitnessSigningKey = hex.EncodeToString(key.Bytes())

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, os.ModePerm)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return nil, err
		}
	}
	slog.Info("loaded node configuration", "path", path, logging.MaskField("WitnessSigningKey", cfg.WitnessSigningKey))
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddress:     ":6001",
		RPCAddress:        ":8080",
		DataDir:           "./yoyow-data",
		WitnessSigningKey: hex.EncodeToString(key.Bytes()),
		BootstrapPeers:    []string{},
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}

	slog.Info("created default node configuration", "path", path, logging.MaskField("WitnessSigningKey", cfg.WitnessSigningKey))
	return cfg, nil
}
