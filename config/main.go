package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ConfigPath is the variable which stores the config path command line parameter
	ConfigPath string
)

// Config stores the config for the tool
type Config struct {
	// Training configuration of the trainer and path finder
	Training TrainingConfig `yaml:"training"`
	// QLearning parameters of the Q-Learning policy
	QLearning QLearningConfig `yaml:"qlearning"`
	// Seed of the random policy
	Seed uint64 `yaml:"seed"`
	// LogConfig configuration for logging
	LogConfig LogConfig `yaml:"log"`
	// Redis configuration of the keyspace environment
	Redis RedisConfig `yaml:"redis"`
	// ServerAddr address of the inspection server
	ServerAddr string `yaml:"server_addr"`
	// RecordPath folder where traces and plots are saved
	RecordPath string `yaml:"record_path"`
}

// TrainingConfig bounds the trajectories
type TrainingConfig struct {
	Epochs         int `yaml:"epochs"`
	MaximumActions int `yaml:"maximum_actions"`
	WalkLimit      int `yaml:"walk_limit"`
	MaxSteps       int `yaml:"max_steps"`
	// Runs number of times each comparison is repeated
	Runs int `yaml:"runs"`
}

// QLearningConfig stores the learning parameters
type QLearningConfig struct {
	LearningRate float64 `yaml:"learning_rate"`
	Discount     float64 `yaml:"discount"`
	Epsilon      float64 `yaml:"epsilon"`
	Seed         uint64  `yaml:"seed"`
}

// LogConfig stores the config for logging purpose
type LogConfig struct {
	// Path of the log file
	Path string `yaml:"path"`
	// Format to log, `json` or `text`
	Format string `yaml:"format"`
	// Level log level, one of panic|fatal|error|warn|warning|info|debug|trace
	Level string `yaml:"level"`
}

// RedisConfig stores the connection details of the keyspace environment
type RedisConfig struct {
	Addr   string `yaml:"addr"`
	DB     int    `yaml:"db"`
	Prefix string `yaml:"prefix"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Training: TrainingConfig{
			Epochs:         100,
			MaximumActions: 50,
			WalkLimit:      100,
			MaxSteps:       200,
			Runs:           1,
		},
		QLearning: QLearningConfig{
			LearningRate: 0.5,
			Discount:     0.9,
			Epsilon:      0.1,
			Seed:         1,
		},
		Seed: 1,
		LogConfig: LogConfig{
			Path:   "",
			Format: "text",
			Level:  "info",
		},
		Redis: RedisConfig{
			Addr:   "127.0.0.1:6379",
			DB:     0,
			Prefix: "route:",
		},
		ServerAddr: "127.0.0.1:7074",
		RecordPath: "results",
	}
}

// ParseConfig parses config from the specified file on top of the defaults
func ParseConfig(path string) (*Config, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(bytes)
}

// Parse decodes a YAML document on top of the defaults
func Parse(bytes []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(bytes, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the bounds of the trajectory parameters
func (c *Config) Validate() error {
	t := c.Training
	if t.Epochs < 0 || t.MaximumActions < 0 || t.WalkLimit < 0 || t.MaxSteps < 0 {
		return fmt.Errorf("training bounds must be non negative: %+v", t)
	}
	if t.Runs < 1 {
		return fmt.Errorf("at least one run is required, got %d", t.Runs)
	}
	return nil
}
