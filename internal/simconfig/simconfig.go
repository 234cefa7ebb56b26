// Package simconfig loads the server's startup configuration: bind
// address, initial world dimensions and Rules variant, scenario knobs,
// and logging. Grounded on pthm-soup's config/config.go — an
// embed-defaults-then-overlay-user-file loader — generalized from its
// ecosystem-simulation schema to this simulator's world/scenario/server
// schema (SPEC_FULL.md §2.3).
package simconfig

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type ServerConfig struct {
	BindAddr      string `yaml:"bind_addr"`
	JSONTransport bool   `yaml:"json_transport"`
}

type WorldConfig struct {
	Width                  int     `yaml:"width"`
	Height                 int     `yaml:"height"`
	Rules                  string  `yaml:"rules"`
	PressureSystem         string  `yaml:"pressure_system"`
	Gravity                float64 `yaml:"gravity"`
	Elasticity             float64 `yaml:"elasticity"`
	PressureScale          float64 `yaml:"pressure_scale"`
	WaterPressureThreshold float64 `yaml:"water_pressure_threshold"`
	DirtFragmentation      float64 `yaml:"dirt_fragmentation"`
	TimeReversalEnabled    bool    `yaml:"time_reversal_enabled"`
	AddParticlesEnabled    bool    `yaml:"add_particles_enabled"`
}

type ScenarioConfig struct {
	QuadrantEnabled bool    `yaml:"quadrant_enabled"`
	WaterColumn     bool    `yaml:"water_column"`
	RightThrow      bool    `yaml:"right_throw"`
	RainRate        float64 `yaml:"rain_rate"`
	WallsEnabled    bool    `yaml:"walls_enabled"`
}

type LoggingConfig struct {
	File         string `yaml:"file"`
	MaxSizeBytes int64  `yaml:"max_size_bytes"`
	Level        string `yaml:"level"`
}

// Config is the whole server configuration tree.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	World    WorldConfig    `yaml:"world"`
	Scenario ScenarioConfig `yaml:"scenario"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load parses the embedded defaults, then overlays path's contents (if
// path is non-empty) so a user file only needs to name the fields it
// overrides — the same "defaults then overlay" two-pass unmarshal
// pthm-soup's Load uses.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing embedded config defaults")
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	return cfg, nil
}
