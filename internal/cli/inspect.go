package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"comfyui-deps/internal/app"
)

type inspectOptions struct {
	OutputDir string
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the outputs of an earlier resolve",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	return cmd
}

func runInspect(cmd *cobra.Command, opts inspectOptions) error {
	service := newAppService()
	result, err := service.Inspect(app.InspectRequest{
		OutputDir: resolveString(cmd, opts.OutputDir, "output", "output"),
	})
	if err != nil {
		return err
	}

	if !result.GeneratedAt.IsZero() {
		fmt.Printf("generated: %s\n", result.GeneratedAt.Format(time.RFC3339))
	}
	fmt.Printf("packages: %d resolved, %d excluded, %d failed\n",
		result.Summary.Resolved, len(result.Excluded), len(result.Failed))
	fmt.Println("requirements.lock.txt tiers:")
	for _, tier := range result.Tiers {
		fmt.Printf("- %s: %d packages\n", tier.Tier, tier.Count)
		if len(tier.Packages) > 0 {
			fmt.Printf("  %s\n", strings.Join(tier.Packages, ", "))
		}
	}
	if len(result.Excluded) > 0 {
		fmt.Println("excluded:")
		for _, excluded := range result.Excluded {
			fmt.Printf("- %s %s\n", excluded.Package, excluded.Reason)
		}
	}
	fmt.Printf("conflict overrides: %d\n", len(result.Overrides))
	for _, override := range result.Overrides {
		fmt.Printf("- %s %s (%s, from %s)\n", override.Package, override.ChosenVersion, override.Method, override.ChosenSource)
	}
	for _, recommendation := range result.Recommendations {
		fmt.Printf("! %s\n", recommendation)
	}
	return nil
}
