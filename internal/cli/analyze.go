package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"comfyui-deps/internal/app"
)

type analyzeOptions struct {
	sourceFlags
	YAML bool
}

func newAnalyzeCommand() *cobra.Command {
	opts := analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fetch requirements and report conflicts without writing outputs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd.Context(), cmd, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "Print the full report as YAML")
	_ = viper.BindPFlag("analyze_yaml", cmd.Flags().Lookup("yaml"))
	return cmd
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, opts analyzeOptions) error {
	service := newAppService()
	result, err := service.Analyze(ctx, app.AnalyzeRequest{Options: opts.options(cmd)})
	if err != nil {
		return err
	}
	if resolveBool(cmd, opts.YAML, "analyze_yaml", "yaml") {
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(result.Report)
	}

	printSummary(result.Report)
	for _, conflict := range result.Report.Conflicts {
		var sources []string
		for _, req := range conflict.Requirements {
			sources = append(sources, req.Source+" "+req.Raw)
		}
		fmt.Printf("- conflict %s (%s): %s\n", conflict.Package, conflict.Kind, strings.Join(sources, "; "))
	}
	for _, override := range result.Report.Overrides {
		fmt.Printf("- %s resolved to %s via %s (from %s)\n",
			override.Package, override.ChosenVersion, override.Method, override.ChosenSource)
	}
	return nil
}
