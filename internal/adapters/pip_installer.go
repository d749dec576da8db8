package adapters

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"comfyui-deps/internal/core"
	"comfyui-deps/internal/ports"
	"comfyui-deps/internal/shared"
	"comfyui-deps/internal/types"
)

const defaultPython = "python3"
const defaultInstallRetries = 3
const defaultInstallBackoff = 2 * time.Second

// CommandRunner executes a command and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type PipInstallerAdapter struct {
	Runner CommandRunner
	// Sleep waits between attempts. Tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) bool
}

func NewPipInstallerAdapter() PipInstallerAdapter {
	return PipInstallerAdapter{Runner: execRunner{}, Sleep: sleepContext}
}

// Install runs pip for one plan entry, retrying with exponential backoff.
// It never returns an error; the outcome is carried in the result.
func (a PipInstallerAdapter) Install(ctx context.Context, entry types.ResolvedPackage, request ports.InstallRequest) types.InstallResult {
	spec := core.InstallSpec(entry)
	result := types.InstallResult{Package: entry.Package, Spec: spec}
	python := strings.TrimSpace(request.Python)
	if python == "" {
		python = defaultPython
	}
	args := PipInstallArgs(entry, request.ExtraArgs)
	logger := log.Ctx(ctx).With().Str("package", entry.Package).Str("spec", spec).Logger()

	if request.DryRun {
		logger.Info().Str("command", python+" "+strings.Join(args, " ")).Msg("dry run")
		result.Success = true
		return result
	}

	retries := request.Retries
	if retries <= 0 {
		retries = defaultInstallRetries
	}
	backoff := time.Duration(request.BackoffSec) * time.Second
	if backoff <= 0 {
		backoff = defaultInstallBackoff
	}
	runner := a.Runner
	if runner == nil {
		runner = execRunner{}
	}
	sleep := a.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		result.Attempts = attempt + 1
		output, err := runner.Run(ctx, python, args...)
		if err == nil {
			result.Success = true
			logger.Debug().Int("attempts", result.Attempts).Msg("installed")
			return result
		}
		lastErr = errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("pip install failed").
			WithCause(shared.CommandError(output, err))
		if ctx.Err() != nil || attempt == retries-1 {
			break
		}
		delay := backoff * time.Duration(1<<attempt)
		logger.Warn().
			Int("attempt", attempt+1).
			Int("retries", retries).
			Dur("retry_in", delay).
			Msg("pip install failed, retrying")
		if !sleep(ctx, delay) {
			break
		}
	}
	logger.Error().Err(lastErr).Int("attempts", result.Attempts).Msg("install failed")
	result.Error = lastErr.Error()
	return result
}

// PipInstallArgs builds the pip arguments for one plan entry, including
// its index overrides.
func PipInstallArgs(entry types.ResolvedPackage, extra []string) []string {
	args := []string{"-m", "pip", "install", "--no-cache-dir", core.InstallSpec(entry)}
	if entry.IndexURL != "" {
		args = append(args, "--index-url", entry.IndexURL)
	}
	for _, index := range entry.ExtraIndexURLs {
		args = append(args, "--extra-index-url", index)
	}
	return append(args, extra...)
}

var _ ports.InstallerPort = PipInstallerAdapter{}
