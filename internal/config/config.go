// Package config holds the engine-tunable defaults (buffer capacity, idle
// timeout, progress interval) and lets an operator override them via
// environment variables, the way the teacher's config package lets WARP_*
// env vars override DefaultConfig(). Unlike the teacher, this is a library,
// not a CLI: per spec §6 ("No CLI, no configuration file, no persistent
// state") there is no on-disk config file and no global mutable state —
// Load() builds its own *viper.Viper instance bound only to the process
// environment.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/zulfikawr/transload/internal/protocol"
)

const envPrefix = "TRANSLOAD"

// Config holds the engine tunables a SessionConfig can leave at zero to
// accept the environment/default value.
type Config struct {
	BufferCapBytes   int64         `mapstructure:"buffer_cap_bytes"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout_seconds"`
	ProgressInterval time.Duration `mapstructure:"progress_interval_seconds"`
}

// Default returns the spec-mandated defaults: 20 MiB buffer cap, 60s idle
// timeout, 5s progress interval.
func Default() *Config {
	return &Config{
		BufferCapBytes:   protocol.DefaultBufferCapBytes,
		IdleTimeout:      protocol.DefaultIdleTimeout,
		ProgressInterval: protocol.DefaultProgressInterval,
	}
}

// Load returns Default() with any of TRANSLOAD_BUFFER_CAP_BYTES,
// TRANSLOAD_IDLE_TIMEOUT_SECONDS, TRANSLOAD_PROGRESS_INTERVAL_SECONDS
// applied from the environment, if set. Duration fields are read as plain
// seconds (an integer env var), matching the teacher's preference for
// scalar env values over duration strings.
func Load() *Config {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if v.IsSet("BUFFER_CAP_BYTES") {
		cfg.BufferCapBytes = v.GetInt64("BUFFER_CAP_BYTES")
	}
	if v.IsSet("IDLE_TIMEOUT_SECONDS") {
		cfg.IdleTimeout = time.Duration(v.GetInt64("IDLE_TIMEOUT_SECONDS")) * time.Second
	}
	if v.IsSet("PROGRESS_INTERVAL_SECONDS") {
		cfg.ProgressInterval = time.Duration(v.GetInt64("PROGRESS_INTERVAL_SECONDS")) * time.Second
	}

	return cfg
}

// WithOverrides applies any non-zero fields from override on top of cfg and
// returns the result, leaving cfg untouched. Used by the Session
// constructor to merge SessionConfig's ambient BufferCapBytes/IdleTimeout
// fields (spec §C.8 of SPEC_FULL.md) over the environment-resolved config.
func (cfg *Config) WithOverrides(bufferCapBytes int64, idleTimeout time.Duration) *Config {
	merged := *cfg
	if bufferCapBytes > 0 {
		merged.BufferCapBytes = bufferCapBytes
	}
	if idleTimeout > 0 {
		merged.IdleTimeout = idleTimeout
	}
	return &merged
}
