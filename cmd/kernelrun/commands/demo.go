package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openfluke/kernelrun/pods"
)

var listDemos bool

var demoCmd = &cobra.Command{
	Use:   "demo [NAME...]",
	Short: "Run the bundled self-checking demos",
	Long: `Run one or more registered demos. Each demo dispatches a bundled
kernel and checks the result against a CPU reference. With no names,
every demo runs.

Available demos: ` + strings.Join(pods.Names(), ", "),
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().BoolVar(&listDemos, "list", false, "list demo names and exit")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if listDemos {
		for _, name := range pods.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	opts, err := gpuOptions(cfg)
	if err != nil {
		return err
	}
	x := pods.NewContext(cfg).WithGPU(opts...).WithOutput(out)
	x.Ctx = commandContext(cmd)

	names := args
	if len(names) == 0 {
		names = pods.Names()
	}
	for _, name := range names {
		if err := pods.Run(name, x); err != nil {
			return err
		}
	}
	return nil
}
