// Package config loads runtime configuration for the duet client.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. JSON file given with -c/-config, or ~/.duet/client.json when it exists.
//  3. Command-line flags (see parseFlags).
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s",
//	  "log_level": "warn"
//	}
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/dmitrijs2005/duet/internal/flagx"
)

// Config holds runtime settings for the duet client.
type Config struct {
	ServerEndpointAddr  string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "warn"
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.ServerEndpointAddr == "" {
		return fmt.Errorf("config: empty server address")
	}
	if c.RequestTimeout <= 0 || c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("config: timeouts must be positive")
	}
	return nil
}

// homeDir is swapped in tests.
var homeDir = homedir.Dir

// DefaultConfigPath is ~/.duet/client.json, or "" when the home directory
// is unknown.
func DefaultConfigPath() string {
	home, err := homeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".duet", "client.json")
}

// LoadConfig builds a Config from defaults, the JSON file and flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], flagx.ConfigFile(DefaultConfigPath()))
}

func load(args []string, jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, jsonPath); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
