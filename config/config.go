// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Field      FieldConfig      `yaml:"field"`
	Obstacles  ObstacleConfig   `yaml:"obstacles"`
	Bird       BirdConfig       `yaml:"bird"`
	Population PopulationConfig `yaml:"population"`
	Neural     NeuralConfig     `yaml:"neural"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// FieldConfig holds play field dimensions in field units.
type FieldConfig struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	FloorHeight float64 `yaml:"floor_height"`
}

// ObstacleConfig holds pipe spawning and movement parameters.
type ObstacleConfig struct {
	GapHeight     float64 `yaml:"gap_height"`
	Speed         float64 `yaml:"speed"`          // Leftward units per tick
	SpawnInterval int     `yaml:"spawn_interval"` // Round ticks between pair spawns
	Width         float64 `yaml:"width"`
	GapPlacement  string  `yaml:"gap_placement"` // random, fixed or noise
	GapMargin     float64 `yaml:"gap_margin"`    // Minimum pipe length above and below the gap
	NoiseScale    float64 `yaml:"noise_scale"`   // Noise frequency per spawned pair
	Prune         string  `yaml:"prune"`         // none or offscreen
}

// BirdConfig holds agent body and physics parameters.
type BirdConfig struct {
	Left          float64 `yaml:"left"`
	StartTop      float64 `yaml:"start_top"`
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	Gravity       float64 `yaml:"gravity"`       // Velocity added per tick
	JumpVelocity  float64 `yaml:"jump_velocity"` // Velocity set by a flap (negative is up)
	JumpCooldown  int     `yaml:"jump_cooldown"`
	PipeCollision bool    `yaml:"pipe_collision"`
}

// PopulationConfig holds population sizing.
type PopulationConfig struct {
	Games        int `yaml:"games"`
	BirdsPerGame int `yaml:"birds_per_game"`
}

// NeuralConfig holds network shape and decision parameters.
type NeuralConfig struct {
	Sensors        []string `yaml:"sensors"`
	Actuators      []string `yaml:"actuators"`
	HiddenLayers   []int    `yaml:"hidden_layers"`
	ActuatorPolicy string   `yaml:"actuator_policy"` // threshold or argmax
	SeedPolicy     string   `yaml:"seed_policy"`     // perturb, clone or fresh
}

// MutationConfig holds sparse mutation parameters for the perturb seed policy.
type MutationConfig struct {
	Rate     float64 `yaml:"rate"`
	Sigma    float64 `yaml:"sigma"`
	BigRate  float64 `yaml:"big_rate"`
	BigSigma float64 `yaml:"big_sigma"`
}

// ScheduleConfig holds tick scheduling parameters.
type ScheduleConfig struct {
	Speed    int `yaml:"speed"`     // Simulation steps per update call
	MaxSpeed int `yaml:"max_speed"` // Upper bound for speed, also the interactive slider's range
	TickRate int `yaml:"tick_rate"` // Headless updates per second (0 = best effort)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsInterval int `yaml:"stats_interval"` // Ticks between stats records
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	NumInputs  int     // len(Neural.Sensors)
	NumOutputs int     // len(Neural.Actuators)
	LayerSizes []int   // inputs, hidden..., outputs
	FloorY     float64 // Field.Height - Field.FloorHeight
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
// Only the program entry point reads it; everything else takes a *Config.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Finalize validates the configuration and recomputes derived values.
// Call it after changing fields of a loaded Config.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.computeDerived()
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Field.Width > 0, "field.width must be positive, got %v", c.Field.Width)
	check(c.Field.Height > 0, "field.height must be positive, got %v", c.Field.Height)
	check(c.Field.FloorHeight >= 0 && c.Field.FloorHeight < c.Field.Height,
		"field.floor_height must be in [0, field.height), got %v", c.Field.FloorHeight)

	check(c.Obstacles.GapHeight > 0, "obstacles.gap_height must be positive, got %v", c.Obstacles.GapHeight)
	check(c.Obstacles.Speed >= 0, "obstacles.speed must not be negative, got %v", c.Obstacles.Speed)
	check(c.Obstacles.SpawnInterval > 0, "obstacles.spawn_interval must be positive, got %d", c.Obstacles.SpawnInterval)
	check(c.Obstacles.Width > 0, "obstacles.width must be positive, got %v", c.Obstacles.Width)
	check(c.Obstacles.GapMargin >= 0, "obstacles.gap_margin must not be negative, got %v", c.Obstacles.GapMargin)
	playable := c.Field.Height - c.Field.FloorHeight
	check(c.Obstacles.GapHeight+2*c.Obstacles.GapMargin <= playable,
		"obstacles.gap_height plus margins (%v) exceeds playable height %v",
		c.Obstacles.GapHeight+2*c.Obstacles.GapMargin, playable)
	check(oneOf(c.Obstacles.GapPlacement, "random", "fixed", "noise"),
		"obstacles.gap_placement %q is not one of random, fixed, noise", c.Obstacles.GapPlacement)
	check(oneOf(c.Obstacles.Prune, "none", "offscreen"),
		"obstacles.prune %q is not one of none, offscreen", c.Obstacles.Prune)

	check(c.Bird.Width > 0 && c.Bird.Height > 0, "bird.width and bird.height must be positive")
	check(c.Bird.JumpCooldown >= 0, "bird.jump_cooldown must not be negative, got %d", c.Bird.JumpCooldown)

	check(c.Population.Games >= 1, "population.games must be at least 1, got %d", c.Population.Games)
	check(c.Population.BirdsPerGame >= 1, "population.birds_per_game must be at least 1, got %d", c.Population.BirdsPerGame)

	check(len(c.Neural.Sensors) > 0, "neural.sensors must not be empty")
	check(len(c.Neural.Actuators) > 0, "neural.actuators must not be empty")
	for i, h := range c.Neural.HiddenLayers {
		check(h > 0, "neural.hidden_layers[%d] must be positive, got %d", i, h)
	}
	check(oneOf(c.Neural.ActuatorPolicy, "threshold", "argmax"),
		"neural.actuator_policy %q is not one of threshold, argmax", c.Neural.ActuatorPolicy)
	check(oneOf(c.Neural.SeedPolicy, "perturb", "clone", "fresh"),
		"neural.seed_policy %q is not one of perturb, clone, fresh", c.Neural.SeedPolicy)

	check(c.Schedule.Speed >= 1, "schedule.speed must be at least 1, got %d", c.Schedule.Speed)
	check(c.Schedule.Speed <= c.Schedule.MaxSpeed,
		"schedule.speed %d exceeds schedule.max_speed %d", c.Schedule.Speed, c.Schedule.MaxSpeed)
	check(c.Schedule.TickRate >= 0, "schedule.tick_rate must not be negative, got %d", c.Schedule.TickRate)

	return errors.Join(errs...)
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.NumInputs = len(c.Neural.Sensors)
	c.Derived.NumOutputs = len(c.Neural.Actuators)

	sizes := make([]int, 0, len(c.Neural.HiddenLayers)+2)
	sizes = append(sizes, c.Derived.NumInputs)
	sizes = append(sizes, c.Neural.HiddenLayers...)
	sizes = append(sizes, c.Derived.NumOutputs)
	c.Derived.LayerSizes = sizes

	c.Derived.FloorY = c.Field.Height - c.Field.FloorHeight

	// Screen defaults to the field size
	if c.Screen.Width == 0 {
		c.Screen.Width = int(c.Field.Width)
	}
	if c.Screen.Height == 0 {
		c.Screen.Height = int(c.Field.Height)
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
