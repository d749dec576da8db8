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

func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}

	ctx = withLogger(ctx)
	run, err := s.runPipeline(ctx, req.Options)
	if err != nil {
		return ResolveResult{}, err
	}
	report := run.Report
	if req.VerifyIndex {
		s.verifyIndex(ctx, run.Config, &report)
	}

	python := firstNonEmpty(req.Python, run.Config.Install.Python)
	if err := writeOutputs(s.NewOutput(outputDir), run.Plan, report, python); err != nil {
		return ResolveResult{}, err
	}
	if err := s.writeMetrics(req.MetricsFile, report, nil); err != nil {
		return ResolveResult{}, err
	}
	log.Ctx(ctx).Info().Str("output", outputDir).Int("entries", len(run.Plan.Entries)).Msg("outputs written")
	return ResolveResult{OutputDir: outputDir, Report: report}, nil
}

// verifyIndex records which pins are published and adds a recommendation
// for every pin pip would fail to find.
func (s Service) verifyIndex(ctx context.Context, cfg types.Config, report *types.ResolutionReport) {
	if s.Index == nil {
		return
	}
	checks := s.Index.CheckPlan(ctx, report.Plan.Entries, ports.IndexCheckRequest{
		Workers:          cfg.Fetch.Workers,
		HTTPTimeoutSec:   cfg.Fetch.TimeoutSec,
		HTTPRetries:      cfg.Fetch.Retries,
		HTTPRetryDelayMs: cfg.Fetch.RetryDelayMs,
	})
	report.IndexChecks = checks
	for _, check := range checks {
		if check.Available {
			continue
		}
		switch {
		case check.Error != "":
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("could not verify %s==%s: %s", check.Package, check.Version, check.Error))
		case check.Latest != "":
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("%s==%s is not published; latest available is %s", check.Package, check.Version, check.Latest))
		default:
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("%s==%s is not published on any configured index", check.Package, check.Version))
		}
		log.Ctx(ctx).Warn().Str("package", check.Package).Str("version", check.Version).Msg("pinned version not found on index")
	}
}
