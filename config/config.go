// Package config loads TOML-backed tuning for the engine and the httpsrv
// server, following internal/tqw's toml.Decode pattern and server/config.go's
// FillDefaults/Validate shape.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Engine holds the per-parse resource limits passed to engine.NewParseState.
type Engine struct {
	MaxStackDepth int `toml:"max_stack_depth"`
	MaxLookahead  int `toml:"max_lookahead"`
}

// Stream holds tuning for the stream package's buffer growth.
type Stream struct {
	MaxBufSize int `toml:"max_buf_size"`
}

// Server holds the httpsrv bind address and auth secret.
type Server struct {
	BindAddress       string `toml:"bind_address"`
	JWTSecret         string `toml:"jwt_secret"`
	UnauthDelayMillis int    `toml:"unauth_delay_millis"`
}

// SQLite holds the path to the store package's on-disk grammar cache.
type SQLite struct {
	DataDir string `toml:"data_dir"`
}

// Config is the full set of tunables loaded from a TOML file.
type Config struct {
	Engine Engine `toml:"engine"`
	Stream Stream `toml:"stream"`
	Server Server `toml:"server"`
	SQLite SQLite `toml:"sqlite"`
}

const (
	// MinSecretSize matches server/config.go's JWT secret length floor.
	MinSecretSize = 32
	MaxSecretSize = 64
)

// Load reads and decodes a TOML config file at path, then fills in defaults
// for anything left unset.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg.FillDefaults(), nil
}

// FillDefaults returns a copy of cfg with every unset field replaced by its
// default, matching the core engine's own defaults (500/500) from spec §3/§5.
func (cfg Config) FillDefaults() Config {
	out := cfg

	if out.Engine.MaxStackDepth == 0 {
		out.Engine.MaxStackDepth = 500
	}
	if out.Engine.MaxLookahead == 0 {
		out.Engine.MaxLookahead = 500
	}
	if out.Stream.MaxBufSize == 0 {
		out.Stream.MaxBufSize = 64 * 1024 * 1024
	}
	if out.Server.BindAddress == "" {
		out.Server.BindAddress = ":8080"
	}
	if out.Server.JWTSecret == "" {
		out.Server.JWTSecret = "DEFAULT_TOKEN_SECRET-DO_NOT_USE_IN_PROD!"
	}
	if out.Server.UnauthDelayMillis == 0 {
		out.Server.UnauthDelayMillis = 1000
	}
	if out.SQLite.DataDir == "" {
		out.SQLite.DataDir = "./data"
	}

	return out
}

// Validate returns an error if cfg has field values that can never work,
// regardless of defaulting: a JWT secret outside the allowed length range,
// or resource limits that are not positive.
func (cfg Config) Validate() error {
	if cfg.Engine.MaxStackDepth <= 0 {
		return fmt.Errorf("engine.max_stack_depth must be positive")
	}
	if cfg.Engine.MaxLookahead <= 0 {
		return fmt.Errorf("engine.max_lookahead must be positive")
	}
	secretLen := len(cfg.Server.JWTSecret)
	if secretLen < MinSecretSize || secretLen > MaxSecretSize {
		return fmt.Errorf("server.jwt_secret: must be %d-%d bytes, is %d", MinSecretSize, MaxSecretSize, secretLen)
	}
	return nil
}
