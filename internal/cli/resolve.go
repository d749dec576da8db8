package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"comfyui-deps/internal/app"
	"comfyui-deps/internal/types"
)

type resolveOptions struct {
	sourceFlags
	OutputDir   string
	Python      string
	VerifyIndex bool
	MetricsFile string
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Fetch requirements, resolve versions and write install outputs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	cmd.Flags().StringVar(&opts.Python, "python", "", "Python interpreter used by install.sh")
	cmd.Flags().BoolVar(&opts.VerifyIndex, "verify-index", false, "Check pinned versions against their package index")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("python", cmd.Flags().Lookup("python"))
	_ = viper.BindPFlag("verify_index", cmd.Flags().Lookup("verify-index"))
	_ = viper.BindPFlag("metrics_file", cmd.Flags().Lookup("metrics-file"))

	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, opts resolveOptions) error {
	service := newAppService()
	result, err := service.Resolve(ctx, app.ResolveRequest{
		Options:     opts.options(cmd),
		OutputDir:   resolveString(cmd, opts.OutputDir, "output", "output"),
		Python:      resolveString(cmd, opts.Python, "python", "python"),
		VerifyIndex: resolveBool(cmd, opts.VerifyIndex, "verify_index", "verify-index"),
		MetricsFile: resolveString(cmd, opts.MetricsFile, "metrics_file", "metrics-file"),
	})
	if err != nil {
		return err
	}
	printSummary(result.Report)
	fmt.Printf("wrote outputs to %s\n", result.OutputDir)
	return nil
}

func printSummary(report types.ResolutionReport) {
	summary := report.Summary
	fmt.Printf("sources: %d analyzed, %d degraded\n", summary.SourcesAnalyzed, summary.SourcesDegraded)
	fmt.Printf("packages: %d total, %d resolved, %d excluded, %d failed\n",
		summary.TotalPackages, summary.Resolved, summary.Excluded, summary.Failed)
	fmt.Printf("conflicts: %d (%d overridden)\n", summary.Conflicts, summary.Overrides)
	for _, degraded := range report.DegradedSources {
		fmt.Printf("- degraded %s: %s\n", degraded.Source, degraded.Reason)
	}
	for _, failed := range report.Failed {
		fmt.Printf("- failed %s: %s\n", failed.Package, failed.Reason)
	}
	if len(report.Recommendations) > 0 {
		fmt.Println("recommendations:")
		for _, recommendation := range report.Recommendations {
			fmt.Printf("- %s\n", recommendation)
		}
	}
}
