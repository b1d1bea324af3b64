package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces every environment override, e.g. VEHICLES_SIMULATION_TICKHZ.
	EnvPrefix = "VEHICLES"

	// DefaultTickHz is the fixed physics rate.
	DefaultTickHz = 50.0
	// DefaultAirDensity is sea-level air density in kg/m³.
	DefaultAirDensity = 1.225
	// DefaultGravity is the downward acceleration in m/s².
	DefaultGravity = 9.82
	// DefaultAeroMode blends the current and predicted force samples.
	DefaultAeroMode = "midpoint"
	// DefaultSASStrength scales stability assist corrections.
	DefaultSASStrength = 1.0
	// DefaultAssembly is the catalog layout flown when none is requested.
	DefaultAssembly = "glider"

	// DefaultLogLevel controls verbosity for simulator logs.
	DefaultLogLevel = "info"
	// DefaultLogMaxSizeMB caps the size of a single log file before rotation.
	DefaultLogMaxSizeMB = 100
	// DefaultLogMaxBackups limits retained rotated log files.
	DefaultLogMaxBackups = 10
	// DefaultLogMaxAgeDays controls how long rotated log files are kept on disk.
	DefaultLogMaxAgeDays = 7
	// DefaultLogCompress toggles gzip compression for rotated log files.
	DefaultLogCompress = true

	// DefaultReplayDir is where flight recordings are written.
	DefaultReplayDir = "recordings"
	// DefaultReplayMaxRuns bounds how many recordings are kept in the replay directory.
	DefaultReplayMaxRuns = 20
)

// Config captures all runtime tunables for the vehicle simulator.
type Config struct {
	Simulation  SimulationConfig  `mapstructure:"simulation"`
	Environment EnvironmentConfig `mapstructure:"environment"`
	Aero        AeroConfig        `mapstructure:"aero"`
	Control     ControlConfig     `mapstructure:"control"`
	Debug       DebugConfig       `mapstructure:"debug"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Replay      ReplayConfig      `mapstructure:"replay"`
}

// SimulationConfig controls the fixed-step loop.
type SimulationConfig struct {
	TickHz   float64 `mapstructure:"tickHz"`
	Ticks    int     `mapstructure:"ticks"`
	Realtime bool    `mapstructure:"realtime"`
	Assembly string  `mapstructure:"assembly"`
	Script   string  `mapstructure:"script"`
}

// EnvironmentConfig describes the air and gravity every vehicle flies through.
type EnvironmentConfig struct {
	AirDensity float64 `mapstructure:"airDensity"`
	Gravity    float64 `mapstructure:"gravity"`
}

// AeroConfig selects how force samples are blended.
type AeroConfig struct {
	Mode string `mapstructure:"mode"`
}

// ControlConfig holds stability assist defaults and key bindings.
type ControlConfig struct {
	SASEnabled  bool        `mapstructure:"sasEnabled"`
	SASStrength float64     `mapstructure:"sasStrength"`
	Keys        KeyBindings `mapstructure:"keys"`
}

// KeyBindings names the input keys driving vehicle-wide controls.
type KeyBindings struct {
	Ignite       string `mapstructure:"ignite"`
	Shutdown     string `mapstructure:"shutdown"`
	ThrottleUp   string `mapstructure:"throttleUp"`
	ThrottleDown string `mapstructure:"throttleDown"`
	ToggleSAS    string `mapstructure:"toggleSAS"`
	SASUp        string `mapstructure:"sasUp"`
	SASDown      string `mapstructure:"sasDown"`
	GimbalRight  string `mapstructure:"gimbalRight"`
	GimbalLeft   string `mapstructure:"gimbalLeft"`
	GimbalUp     string `mapstructure:"gimbalUp"`
	GimbalDown   string `mapstructure:"gimbalDown"`
}

// DebugConfig toggles overlays, force vectors and the air tunnel.
type DebugConfig struct {
	Enabled                bool       `mapstructure:"enabled"`
	DrawLift               bool       `mapstructure:"drawLift"`
	DrawDrag               bool       `mapstructure:"drawDrag"`
	DrawTangentialVelocity bool       `mapstructure:"drawTangentialVelocity"`
	InitialVelocity        [3]float64 `mapstructure:"initialVelocity"`
	AirTunnel              bool       `mapstructure:"airTunnel"`
	AirTunnelPosition      [3]float64 `mapstructure:"airTunnelPosition"`
	AirTunnelRotation      [3]float64 `mapstructure:"airTunnelRotation"`
}

// LoggingConfig captures structured logging configuration options.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	Console    bool   `mapstructure:"console"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
	Compress   bool   `mapstructure:"compress"`
}

// ReplayConfig controls flight recordings.
type ReplayConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Dir     string        `mapstructure:"dir"`
	MaxRuns int           `mapstructure:"maxRuns"`
	MaxAge  time.Duration `mapstructure:"maxAge"`
}

// Options tune where Load looks for configuration.
type Options struct {
	// File is an explicit config file; empty skips file loading.
	File string
	// Flags are bound over file and environment values when set.
	Flags *pflag.FlagSet
}

// FlagBindings maps CLI flag names onto configuration keys.
var FlagBindings = map[string]string{
	"ticks":      "simulation.ticks",
	"tick-hz":    "simulation.tickHz",
	"realtime":   "simulation.realtime",
	"assembly":   "simulation.assembly",
	"script":     "simulation.script",
	"aero-mode":  "aero.mode",
	"sas":        "control.sasEnabled",
	"debug":      "debug.enabled",
	"log-level":  "logging.level",
	"log-path":   "logging.path",
	"replay-dir": "replay.dir",
	"record":     "replay.enabled",
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("simulation.tickHz", DefaultTickHz)
	v.SetDefault("simulation.ticks", 0)
	v.SetDefault("simulation.realtime", false)
	v.SetDefault("simulation.assembly", DefaultAssembly)
	v.SetDefault("simulation.script", "")

	v.SetDefault("environment.airDensity", DefaultAirDensity)
	v.SetDefault("environment.gravity", DefaultGravity)

	v.SetDefault("aero.mode", DefaultAeroMode)

	v.SetDefault("control.sasEnabled", false)
	v.SetDefault("control.sasStrength", DefaultSASStrength)
	v.SetDefault("control.keys.ignite", "space")
	v.SetDefault("control.keys.shutdown", "x")
	v.SetDefault("control.keys.throttleUp", "up")
	v.SetDefault("control.keys.throttleDown", "down")
	v.SetDefault("control.keys.toggleSAS", "t")
	v.SetDefault("control.keys.sasUp", "keypad8")
	v.SetDefault("control.keys.sasDown", "keypad2")
	v.SetDefault("control.keys.gimbalRight", "d")
	v.SetDefault("control.keys.gimbalLeft", "a")
	v.SetDefault("control.keys.gimbalUp", "w")
	v.SetDefault("control.keys.gimbalDown", "s")

	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.drawLift", false)
	v.SetDefault("debug.drawDrag", false)
	v.SetDefault("debug.drawTangentialVelocity", false)
	v.SetDefault("debug.initialVelocity", []float64{0, 0, 0})
	v.SetDefault("debug.airTunnel", false)
	v.SetDefault("debug.airTunnelPosition", []float64{0, 0, 0})
	v.SetDefault("debug.airTunnelRotation", []float64{0, 0, 0})

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.maxSizeMB", DefaultLogMaxSizeMB)
	v.SetDefault("logging.maxBackups", DefaultLogMaxBackups)
	v.SetDefault("logging.maxAgeDays", DefaultLogMaxAgeDays)
	v.SetDefault("logging.compress", DefaultLogCompress)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.dir", DefaultReplayDir)
	v.SetDefault("replay.maxRuns", DefaultReplayMaxRuns)
	v.SetDefault("replay.maxAge", "0s")
}

// Load reads defaults, an optional config file, VEHICLES_* environment overrides and CLI
// flags, in increasing precedence, and validates the result.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	//1.- Environment variables override defaults using underscores for nesting.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	//2.- A config file is optional but must parse when provided.
	if path := strings.TrimSpace(opts.File); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	//3.- Only explicitly changed flags win over file and environment values.
	if opts.Flags != nil {
		for flagName, key := range FlagBindings {
			flag := opts.Flags.Lookup(flagName)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flagName, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate collects every configuration problem into one error.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var problems []string

	if !(c.Simulation.TickHz > 0) {
		problems = append(problems, fmt.Sprintf("simulation.tickHz must be positive, got %v", c.Simulation.TickHz))
	}
	if c.Simulation.Ticks < 0 {
		problems = append(problems, fmt.Sprintf("simulation.ticks must be non-negative, got %d", c.Simulation.Ticks))
	}
	if c.Environment.AirDensity < 0 {
		problems = append(problems, fmt.Sprintf("environment.airDensity must be non-negative, got %v", c.Environment.AirDensity))
	}
	switch strings.ToLower(strings.TrimSpace(c.Aero.Mode)) {
	case "", "midpoint", "current":
	default:
		problems = append(problems, fmt.Sprintf("aero.mode must be midpoint or current, got %q", c.Aero.Mode))
	}
	if c.Control.SASStrength < 0 || c.Control.SASStrength > 1 {
		problems = append(problems, fmt.Sprintf("control.sasStrength must be within [0,1], got %v", c.Control.SASStrength))
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		problems = append(problems, fmt.Sprintf("logging.level is unknown, got %q", c.Logging.Level))
	}
	if c.Logging.MaxSizeMB <= 0 {
		problems = append(problems, fmt.Sprintf("logging.maxSizeMB must be a positive integer, got %d", c.Logging.MaxSizeMB))
	}
	if c.Logging.MaxBackups < 0 {
		problems = append(problems, fmt.Sprintf("logging.maxBackups must be a non-negative integer, got %d", c.Logging.MaxBackups))
	}
	if c.Logging.MaxAgeDays < 0 {
		problems = append(problems, fmt.Sprintf("logging.maxAgeDays must be a non-negative integer, got %d", c.Logging.MaxAgeDays))
	}
	if c.Replay.Enabled && strings.TrimSpace(c.Replay.Dir) == "" {
		problems = append(problems, "replay.dir must be set when recording is enabled")
	}
	if c.Replay.MaxRuns < 0 {
		problems = append(problems, fmt.Sprintf("replay.maxRuns must be a non-negative integer, got %d", c.Replay.MaxRuns))
	}
	if c.Replay.MaxAge < 0 {
		problems = append(problems, fmt.Sprintf("replay.maxAge must not be negative, got %s", c.Replay.MaxAge))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// StepSeconds returns the fixed physics step.
func (c SimulationConfig) StepSeconds() float64 {
	if !(c.TickHz > 0) {
		return 1 / DefaultTickHz
	}
	return 1 / c.TickHz
}
