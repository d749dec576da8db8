package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"comfyui-deps/internal/ports"
	"comfyui-deps/internal/types"
)

// Install resolves and then installs the plan entry by entry. A failed
// package does not stop the remaining installs; the run fails once all
// entries were tried.
func (s Service) Install(ctx context.Context, req InstallRequest) (InstallResult, error) {
	ctx = withLogger(ctx)
	run, err := s.runPipeline(ctx, req.Options)
	if err != nil {
		return InstallResult{}, err
	}
	cfg := run.Config
	python := firstNonEmpty(req.Python, cfg.Install.Python)
	if outputDir := strings.TrimSpace(req.OutputDir); outputDir != "" {
		if err := writeOutputs(s.NewOutput(outputDir), run.Plan, run.Report, python); err != nil {
			return InstallResult{}, err
		}
	}

	request := ports.InstallRequest{
		Python:     python,
		Retries:    cfg.Install.Retries,
		BackoffSec: cfg.Install.BackoffSec,
		ExtraArgs:  append(append([]string(nil), cfg.Install.ExtraArgs...), req.ExtraArgs...),
		DryRun:     req.DryRun,
	}
	results := make([]types.InstallResult, 0, len(run.Plan.Entries))
	var failed []string
	for _, entry := range run.Plan.Entries {
		if ctx.Err() != nil {
			return InstallResult{Report: run.Report, Results: results, Failed: failed}, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("install canceled").
				WithCause(ctx.Err())
		}
		result := s.Installer.Install(ctx, entry, request)
		results = append(results, result)
		if !result.Success {
			failed = append(failed, entry.Package)
			log.Ctx(ctx).Error().Str("package", entry.Package).Str("error", result.Error).Msg("install failed")
			continue
		}
		log.Ctx(ctx).Info().Str("spec", result.Spec).Int("attempts", result.Attempts).Msg("installed")
	}

	if err := s.writeMetrics(req.MetricsFile, run.Report, results); err != nil {
		return InstallResult{}, err
	}
	out := InstallResult{Report: run.Report, Results: results, Failed: failed}
	if len(failed) > 0 {
		return out, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("install failed for %d packages: %s", len(failed), strings.Join(failed, ", ")))
	}
	return out, nil
}
