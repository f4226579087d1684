package commands

import (
	"context"
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
	"github.com/spf13/cobra"

	"github.com/openfluke/kernelrun/config"
	"github.com/openfluke/kernelrun/gpu"
	"github.com/openfluke/kernelrun/logging"
)

var (
	cfgFile  string
	logLevel string
	power    string

	// cfg is loaded once per invocation by the root pre-run hook.
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kernelrun",
	Short: "Run WGSL compute kernels on a WebGPU device",
	Long: `kernelrun dispatches a WGSL compute kernel against typed input
buffers, waits for the device, and prints the output buffer together
with the kernel's GPU execution time when the adapter supports
timestamp queries.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./kernelrun.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&power, "power", "", "adapter power preference: high-performance or low-power")
}

// setup loads the configuration, applies flag overrides and initializes
// logging before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if power != "" {
		c.GPU.Power = power
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	logging.EnsureInitialized(
		logging.WithLevel(cfg.Log.Level),
		logging.WithFormat(cfg.Log.Format),
	)
	gpu.Debug = cfg.GPU.Debug || cfg.Log.Level == "debug" || cfg.Log.Level == "trace"
	return nil
}

// gpuOptions translates the loaded configuration into dispatch options.
func gpuOptions(c *config.Config) ([]gpu.Option, error) {
	pref, err := powerPreference(c.GPU.Power)
	if err != nil {
		return nil, err
	}
	return []gpu.Option{gpu.WithPowerPreference(pref)}, nil
}

func powerPreference(s string) (wgpu.PowerPreference, error) {
	switch s {
	case "", "high-performance":
		return wgpu.PowerPreferenceHighPerformance, nil
	case "low-power":
		return wgpu.PowerPreferenceLowPower, nil
	default:
		return 0, fmt.Errorf("unknown power preference %q", s)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
