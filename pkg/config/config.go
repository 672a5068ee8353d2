package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"glidecomp/pkg/polar"
)

// Config holds the application configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	DB     DBConfig     `yaml:"db"`
	Server ServerConfig `yaml:"server"`
	Ticker TickerConfig `yaml:"ticker"`
	OLC    OLCConfig    `yaml:"olc"`
	Polar  PolarConfig  `yaml:"polar"`
	Sim    SimConfig    `yaml:"sim"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Events   LogSettings `yaml:"events"`
	// Trace enables per-fix debug output.
	Trace bool `yaml:"trace"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path       string `yaml:"path"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address         string   `yaml:"address"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// TickerConfig holds ticker settings.
type TickerConfig struct {
	TelemetryLoop Duration `yaml:"telemetry_loop"`
}

// OLCConfig holds the contest scoring settings.
type OLCConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Rule     string `yaml:"rule"`
	Handicap int    `yaml:"handicap"`
	// MaxPoints bounds the decimated track (at most 300).
	MaxPoints          int      `yaml:"max_points"`
	SampleInterval     Duration `yaml:"sample_interval"`
	ScoreInterval      Duration `yaml:"score_interval"`
	SprintWindow       Duration `yaml:"sprint_window"`
	CheckpointInterval Duration `yaml:"checkpoint_interval"`
	CheckpointMaxAge   Duration `yaml:"checkpoint_max_age"`
}

// PolarConfig holds the three measured points of the glide polar.
type PolarConfig struct {
	Points [3]polar.Point `yaml:"points"`
}

// SimConfig holds settings for the telemetry source.
type SimConfig struct {
	Provider string        `yaml:"provider"` // "mock"
	Mock     MockSimConfig `yaml:"mock"`
}

// MockSimConfig holds settings for the simulated glider.
type MockSimConfig struct {
	StartLat       float64  `yaml:"start_lat"`
	StartLon       float64  `yaml:"start_lon"`
	StartAlt       float64  `yaml:"start_alt"`
	StartHeading   float64  `yaml:"start_heading"`
	DurationParked Duration `yaml:"duration_parked"`
	ReleaseAlt     float64  `yaml:"release_alt"`
	CloudBase      float64  `yaml:"cloud_base"`
	ThermalClimb   float64  `yaml:"thermal_climb"`
	CruiseSpeed    Speed    `yaml:"cruise_speed"`
	LegLength      Distance `yaml:"leg_length"`
	TimeScale      float64  `yaml:"time_scale"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Server: LogSettings{
				Path:       "./logs/server.log",
				Level:      "INFO",
				MaxSizeMB:  10,
				MaxBackups: 3,
				Compress:   true,
			},
			Requests: LogSettings{
				Path:       "./logs/requests.log",
				Level:      "INFO",
				MaxSizeMB:  5,
				MaxBackups: 1,
			},
			Events: LogSettings{
				Path:       "./logs/events.log",
				Level:      "INFO",
				MaxSizeMB:  1,
				MaxBackups: 5,
			},
		},
		DB: DBConfig{
			Path: "./data/glidecomp.db",
		},
		Server: ServerConfig{
			Address:         "localhost:1930",
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Ticker: TickerConfig{
			TelemetryLoop: Duration(1 * time.Second),
		},
		OLC: OLCConfig{
			Enabled:            true,
			Rule:               "sprint",
			Handicap:           108,
			MaxPoints:          300,
			SampleInterval:     Duration(5 * time.Second),
			ScoreInterval:      Duration(10 * time.Second),
			SprintWindow:       Duration(150 * time.Minute),
			CheckpointInterval: Duration(30 * time.Second),
			CheckpointMaxAge:   Duration(30 * time.Minute),
		},
		Polar: PolarConfig{
			Points: polar.Default,
		},
		Sim: SimConfig{
			Provider: "mock",
			Mock: MockSimConfig{
				StartLat:       47.3769,
				StartLon:       8.5417,
				StartAlt:       450.0,
				StartHeading:   90.0,
				DurationParked: Duration(30 * time.Second),
				ReleaseAlt:     1000.0,
				CloudBase:      2200.0,
				ThermalClimb:   2.0,
				CruiseSpeed:    Speed(110 / 3.6),
				LegLength:      Distance(25000),
				TimeScale:      10,
			},
		},
	}
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	switch strings.ToLower(c.OLC.Rule) {
	case "sprint", "triangle", "fai", "classic", "0", "1", "2":
	default:
		return fmt.Errorf("invalid olc.rule %q: must be sprint, triangle or classic", c.OLC.Rule)
	}
	if c.OLC.Handicap <= 0 {
		return fmt.Errorf("invalid olc.handicap %d: must be positive", c.OLC.Handicap)
	}
	if c.OLC.MaxPoints < 20 || c.OLC.MaxPoints > 300 {
		return fmt.Errorf("invalid olc.max_points %d: must be within [20,300]", c.OLC.MaxPoints)
	}
	if c.OLC.SampleInterval <= 0 || c.OLC.ScoreInterval <= 0 {
		return fmt.Errorf("olc.sample_interval and olc.score_interval must be positive")
	}
	if c.Sim.Mock.TimeScale <= 0 {
		return fmt.Errorf("invalid sim.mock.time_scale %v: must be positive", c.Sim.Mock.TimeScale)
	}
	return nil
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk.
// Environment overrides (see ApplyEnv) are applied last and never persisted.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	cfg.DB.Path = os.ExpandEnv(cfg.DB.Path)
	cfg.Log.Server.Path = os.ExpandEnv(cfg.Log.Server.Path)
	cfg.Log.Requests.Path = os.ExpandEnv(cfg.Log.Requests.Path)
	cfg.Log.Events.Path = os.ExpandEnv(cfg.Log.Events.Path)

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# GlideComp Configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers), nm (nautical miles), ft (feet)
#   Speed:    m/s, km/h, kt
# Environment overrides: GLIDECOMP_OLC_RULE, GLIDECOMP_HANDICAP,
#   GLIDECOMP_SERVER_ADDRESS, GLIDECOMP_DB_PATH (also read from .env)

`)
	data = append(header, data...)

	reRule := regexp.MustCompile(`(?m)^(\s+)rule:`)
	data = reRule.ReplaceAll(data, []byte("${1}# Options: sprint, triangle, classic\n${1}rule:"))

	rePolar := regexp.MustCompile(`(?m)^(\s+)points:`)
	data = rePolar.ReplaceAll(data, []byte("${1}# Three polar points: airspeed km/h, sink m/s\n${1}points:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
