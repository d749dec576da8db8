package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"comfyui-deps/internal/app"
)

var newAppService = app.NewService

// sourceFlags are shared by every command that runs a resolution.
type sourceFlags struct {
	Sources           []string
	RequirementsFiles []string
	CustomNodes       string
	Exclude           []string
	Workers           int
	Timeout           int
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.Sources, "source", nil, "Extra requirements URL (repeatable)")
	cmd.Flags().StringSliceVar(&f.RequirementsFiles, "requirements-file", nil, "Extra local requirements file (repeatable)")
	cmd.Flags().StringVar(&f.CustomNodes, "custom-nodes", "", "Scan a custom_nodes directory for requirements.txt files")
	cmd.Flags().StringSliceVar(&f.Exclude, "exclude", nil, "Package to leave out of the plan (repeatable)")
	cmd.Flags().IntVar(&f.Workers, "workers", 0, "Concurrent source fetches")
	cmd.Flags().IntVar(&f.Timeout, "timeout", 0, "Per-source fetch timeout in seconds")

	_ = viper.BindPFlag("extra_sources", cmd.Flags().Lookup("source"))
	_ = viper.BindPFlag("requirements_files", cmd.Flags().Lookup("requirements-file"))
	_ = viper.BindPFlag("custom_nodes", cmd.Flags().Lookup("custom-nodes"))
	_ = viper.BindPFlag("exclude", cmd.Flags().Lookup("exclude"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("timeout", cmd.Flags().Lookup("timeout"))
}

func (f sourceFlags) options(cmd *cobra.Command) app.SourceOptions {
	return app.SourceOptions{
		ConfigPath:        configPath(),
		Sources:           resolveStrings(cmd, f.Sources, "extra_sources", "source"),
		RequirementsFiles: resolveStrings(cmd, f.RequirementsFiles, "requirements_files", "requirements-file"),
		CustomNodesDir:    resolveString(cmd, f.CustomNodes, "custom_nodes", "custom-nodes"),
		Excluded:          resolveStrings(cmd, f.Exclude, "exclude", "exclude"),
		Workers:           resolveInt(cmd, f.Workers, "workers", "workers"),
		TimeoutSec:        resolveInt(cmd, f.Timeout, "timeout", "timeout"),
	}
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return viper.GetStringSlice(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func resolveInt(cmd *cobra.Command, value int, key string, flagName string) int {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetInt(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
