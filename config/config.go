package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. KERNELRUN_LOG_LEVEL.
const EnvPrefix = "KERNELRUN"

// Config represents the application configuration
type Config struct {
	Log  LogConfig  `mapstructure:"log"`
	GPU  GPUConfig  `mapstructure:"gpu"`
	Demo DemoConfig `mapstructure:"demo"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GPUConfig struct {
	// Power is the adapter power preference: "high-performance" or "low-power".
	Power string `mapstructure:"power"`
	// WorkgroupSize sizes the default 1-D grid of "kernelrun run" when no
	// --grid is given. It must match the kernel's @workgroup_size.
	WorkgroupSize int `mapstructure:"workgroup_size"`
	// Debug enables per-stage harness tracing.
	Debug bool `mapstructure:"debug"`
}

type DemoConfig struct {
	IdentityElements int `mapstructure:"identity_elements"`
	MatrixSize       int `mapstructure:"matrix_size"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		GPU: GPUConfig{
			Power:         "high-performance",
			WorkgroupSize: 256,
		},
		Demo: DemoConfig{
			IdentityElements: 10_000,
			MatrixSize:       64,
		},
	}
}

// Load loads configuration from defaults, the optional file and the
// environment, in increasing priority.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("kernelrun")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.Log.Level) {
		return fmt.Errorf("log.level must be one of: %v", validLevels)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("log.format must be text or json")
	}
	if c.GPU.Power != "high-performance" && c.GPU.Power != "low-power" {
		return errors.New("gpu.power must be high-performance or low-power")
	}
	if c.GPU.WorkgroupSize <= 0 {
		return errors.New("gpu.workgroup_size must be positive")
	}
	if c.Demo.IdentityElements <= 0 || c.Demo.MatrixSize <= 0 {
		return errors.New("demo sizes must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	v.SetDefault("gpu.power", cfg.GPU.Power)
	v.SetDefault("gpu.workgroup_size", cfg.GPU.WorkgroupSize)
	v.SetDefault("gpu.debug", cfg.GPU.Debug)

	v.SetDefault("demo.identity_elements", cfg.Demo.IdentityElements)
	v.SetDefault("demo.matrix_size", cfg.Demo.MatrixSize)
}
