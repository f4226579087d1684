package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfluke/kernelrun/detector"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Show adapter and device information",
	Long: `Acquire a device the same way a dispatch does and print its
adapter info, limits, enabled features, timestamp query support and
host CPU features as JSON.`,
	RunE: runDevice,
}

func init() {
	rootCmd.AddCommand(deviceCmd)
}

func runDevice(cmd *cobra.Command, args []string) error {
	opts, err := gpuOptions(cfg)
	if err != nil {
		return err
	}
	report, err := detector.DetectJSON(opts...)
	if err != nil {
		return fmt.Errorf("probing device: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), report)
	return nil
}
