package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

type StoreConfig struct {
	Type     string `yaml:"type"` // "memory" or "valkey"
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
}

type AppConfig struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
}

// Load reads the config at path over the defaults. A missing file is fine —
// the defaults describe a self-contained dev setup (memory store, localhost
// listen addresses).
func Load(path string) (*AppConfig, error) {
	c := &AppConfig{
		Server: ServerConfig{
			Addr:        ":8788",
			MetricsAddr: ":9090",
		},
		Store: StoreConfig{
			Type: "memory",
		},
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if c.Store.Type == "valkey" && c.Store.Address == "" {
		return nil, fmt.Errorf("store type valkey requires an address")
	}
	return c, nil
}
