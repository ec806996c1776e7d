// Package config loads deployment settings from an optional things.yaml
// file plus environment overrides. The zero configuration runs an
// in-memory embedded store and needs no external services.
package config

import (
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFile = "things.yaml"

// Config holds the runtime settings for the server and seed commands.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// Store selects the backend: "badger" (default) or "mysql".
	Store string `yaml:"store"`

	// DataDir is where the embedded store keeps data. Empty means
	// in-memory.
	DataDir string `yaml:"dataDir"`

	// MySQLDSN is the connection string for the mysql backend.
	MySQLDSN string `yaml:"mysqlDSN"`

	// RedisAddr enables the read-through document cache when set.
	RedisAddr string `yaml:"redisAddr"`

	// CacheTTLSeconds bounds the life of cached documents.
	CacheTTLSeconds int `yaml:"cacheTTLSeconds"`
}

// Load searches for things.yaml starting from the current directory and
// walking up to the filesystem root, then applies environment overrides.
// A missing file yields usable defaults.
func Load() Config {
	cfg := Config{
		Addr:            ":8080",
		Store:           "badger",
		MySQLDSN:        "root:root@tcp(localhost:3306)/things?parseTime=true",
		CacheTTLSeconds: 300,
	}

	if path := findConfigFile(); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				log.Printf("ignoring malformed %s: %v", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("THINGS_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("THINGS_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("THINGS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.MySQLDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
}

func findConfigFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, configFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
