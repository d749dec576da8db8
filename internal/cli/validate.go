package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"comfyui-deps/internal/app"
)

type validateOptions struct {
	sourceFlags
}

func newValidateCommand() *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the config and rule overrides without fetching",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts validateOptions) error {
	service := newAppService()
	result, err := service.Validate(ctx, app.ValidateRequest{Options: opts.options(cmd)})
	if err != nil {
		return err
	}
	fmt.Printf("config ok: %d sources, %d rules, %d excluded, %d additional packages\n",
		result.Sources, result.Rules, result.Excluded, result.Additions)
	return nil
}
