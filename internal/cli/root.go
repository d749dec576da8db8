package cli

import (
	"errors"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "COMFYUI_DEPS"

// Process exit codes. Image build scripts branch on these values.
const (
	exitFailure      = 1
	exitUsage        = 2
	exitPermission   = 3
	exitInstallError = 4
	exitRuntime      = 5
)

type RootConfig struct {
	ConfigFile string
	LogLevel   string
}

func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:     "comfyui-deps",
		Short:   "Resolve one Python environment for ComfyUI and its custom nodes",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			return nil
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newResolveCommand())
	cmd.AddCommand(newAnalyzeCommand())
	cmd.AddCommand(newInstallCommand())
	cmd.AddCommand(newRulesCommand())
	cmd.AddCommand(newInspectCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("comfyui-deps")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/comfyui-deps")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to read comfyui-deps.yaml from the config search path").
			WithCause(err)
	}
	return nil
}

// configPath is the file viper loaded, which also carries the sources
// and rules read by the app.
func configPath() string {
	return viper.ConfigFileUsed()
}

// setupLogging writes human readable logs to stderr; stdout carries only
// command output such as analyze --yaml. Unknown levels fall back to info.
func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// exitCodeForError maps errbuilder codes to exit codes. At the command
// level FailedPrecondition only comes out of install, after pip rejected
// one or more plan entries; per-package resolution failures are recorded
// in the report instead of returned.
func exitCodeForError(err error) int {
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return exitUsage
	case errbuilder.CodePermissionDenied:
		return exitPermission
	case errbuilder.CodeFailedPrecondition:
		return exitInstallError
	case errbuilder.CodeNotFound, errbuilder.CodeInternal:
		return exitRuntime
	default:
		return exitFailure
	}
}
