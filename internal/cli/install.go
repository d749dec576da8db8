package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"comfyui-deps/internal/app"
)

type installOptions struct {
	sourceFlags
	OutputDir   string
	Python      string
	DryRun      bool
	PipArgs     []string
	MetricsFile string
}

func newInstallCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Resolve and install the plan with pip, one package at a time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd.Context(), cmd, opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.OutputDir, "output", "", "Also write the install outputs to this directory")
	cmd.Flags().StringVar(&opts.Python, "python", "", "Python interpreter to run pip with")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the pip commands instead of running them")
	cmd.Flags().StringSliceVar(&opts.PipArgs, "pip-arg", nil, "Extra argument passed to every pip install (repeatable)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	_ = viper.BindPFlag("install_output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("python", cmd.Flags().Lookup("python"))
	_ = viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("pip_args", cmd.Flags().Lookup("pip-arg"))
	_ = viper.BindPFlag("metrics_file", cmd.Flags().Lookup("metrics-file"))

	return cmd
}

func runInstall(ctx context.Context, cmd *cobra.Command, opts installOptions) error {
	service := newAppService()
	result, err := service.Install(ctx, app.InstallRequest{
		Options:     opts.options(cmd),
		OutputDir:   resolveString(cmd, opts.OutputDir, "install_output", "output"),
		Python:      resolveString(cmd, opts.Python, "python", "python"),
		DryRun:      resolveBool(cmd, opts.DryRun, "dry_run", "dry-run"),
		ExtraArgs:   resolveStrings(cmd, opts.PipArgs, "pip_args", "pip-arg"),
		MetricsFile: resolveString(cmd, opts.MetricsFile, "metrics_file", "metrics-file"),
	})
	for _, install := range result.Results {
		status := "ok"
		if !install.Success {
			status = "FAILED"
		}
		fmt.Printf("%-6s %s (attempts=%d)\n", status, install.Spec, install.Attempts)
	}
	if err != nil {
		return err
	}
	fmt.Printf("installed %d packages\n", len(result.Results))
	return nil
}
