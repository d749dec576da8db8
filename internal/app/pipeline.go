package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"comfyui-deps/internal/core"
	"comfyui-deps/internal/policies"
	"comfyui-deps/internal/ports"
	"comfyui-deps/internal/shared"
	"comfyui-deps/internal/types"
)

type pipelineResult struct {
	Config  types.Config
	Rules   *policies.RuleTable
	Outcome types.ResolveOutcome
	Plan    types.InstallationPlan
	Report  types.ResolutionReport
}

// loadConfig reads the config file when one is given, merges the command
// line sources over it and fills in the built-in lists the file leaves
// unset. The result is validated.
func (s Service) loadConfig(opts SourceOptions) (types.Config, error) {
	cfg := types.Config{}
	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		loaded, err := s.ConfigLoader.LoadConfig(path)
		if err != nil {
			return types.Config{}, err
		}
		cfg = loaded
	}

	for _, raw := range append(append([]string(nil), opts.Sources...), opts.RequirementsFiles...) {
		cfg.Sources = appendSource(cfg.Sources, types.SourceSpec{
			ID:  shared.SourceIDFromURL(raw),
			URL: strings.TrimSpace(raw),
		})
	}
	if dir := strings.TrimSpace(opts.CustomNodesDir); dir != "" {
		found, err := s.Workspace.FindRequirementSources(dir)
		if err != nil {
			return types.Config{}, err
		}
		for _, source := range found {
			cfg.Sources = appendSource(cfg.Sources, source)
		}
	}

	if cfg.AdditionalPackages == nil {
		cfg.AdditionalPackages = policies.DefaultAdditionalPackages()
	}
	if cfg.Excluded == nil {
		cfg.Excluded = policies.DefaultExcluded()
	}
	cfg.Excluded = append(cfg.Excluded, opts.Excluded...)
	if opts.Workers > 0 {
		cfg.Fetch.Workers = opts.Workers
	}
	if opts.TimeoutSec > 0 {
		cfg.Fetch.TimeoutSec = opts.TimeoutSec
	}

	if err := s.Validator.Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// appendSource skips a source whose URL is already listed. A derived ID
// that collides with an existing one gets a numeric suffix.
func appendSource(sources []types.SourceSpec, source types.SourceSpec) []types.SourceSpec {
	if source.URL == "" {
		return sources
	}
	ids := map[string]struct{}{}
	for _, existing := range sources {
		if existing.URL == source.URL {
			return sources
		}
		ids[existing.ID] = struct{}{}
	}
	id := source.ID
	for n := 2; ; n++ {
		if _, taken := ids[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s-%d", source.ID, n)
	}
	source.ID = id
	return append(sources, source)
}

func buildRuleTable(cfg types.Config) (*policies.RuleTable, error) {
	base, err := policies.NewDefaultRuleTable()
	if err != nil {
		return nil, err
	}
	return base.WithOverrides(cfg.Rules, cfg.SourceTrust, cfg.DefaultTrust)
}

// runPipeline fetches every source, then aggregates, detects, resolves
// and plans. Unreachable sources degrade the run instead of failing it.
func (s Service) runPipeline(ctx context.Context, opts SourceOptions) (pipelineResult, error) {
	cfg, err := s.loadConfig(opts)
	if err != nil {
		return pipelineResult{}, err
	}
	rules, err := buildRuleTable(cfg)
	if err != nil {
		return pipelineResult{}, err
	}
	engine, err := core.NewEngine(rules, cfg.Forced)
	if err != nil {
		return pipelineResult{}, err
	}

	fetched := s.Fetcher.FetchAll(ctx, ports.SourceFetchRequest{
		Sources:          cfg.Sources,
		Workers:          cfg.Fetch.Workers,
		HTTPTimeoutSec:   cfg.Fetch.TimeoutSec,
		HTTPRetries:      cfg.Fetch.Retries,
		HTTPRetryDelayMs: cfg.Fetch.RetryDelayMs,
	})
	if ctx.Err() != nil {
		return pipelineResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("resolution canceled").
			WithCause(ctx.Err())
	}
	for _, result := range fetched {
		if result.Err != nil {
			engine.MarkDegraded(result.Source.ID, shared.ErrorMessage(result.Err))
			continue
		}
		engine.AddSource(ctx, result.Source.ID, result.Lines)
	}
	// Operator additions go last so configured sources keep their order.
	engine.AddSource(ctx, types.AdditionalSourceID, cfg.AdditionalPackages)

	engine.DetectConflicts(ctx)
	outcome, err := engine.Resolve(ctx, cfg.Excluded)
	if err != nil {
		return pipelineResult{}, err
	}
	plan := engine.BuildPlan(ctx, outcome)
	report := engine.Report()
	if s.Clock != nil {
		report.GeneratedAt = s.Clock().UTC()
	}

	log.Ctx(ctx).Info().
		Int("sources", report.Summary.SourcesAnalyzed).
		Int("degraded", report.Summary.SourcesDegraded).
		Int("packages", report.Summary.TotalPackages).
		Int("resolved", report.Summary.Resolved).
		Int("conflicts", report.Summary.Conflicts).
		Int("failed", report.Summary.Failed).
		Msg("resolution complete")

	return pipelineResult{
		Config:  cfg,
		Rules:   rules,
		Outcome: outcome,
		Plan:    plan,
		Report:  report,
	}, nil
}

// withLogger attaches the global logger unless the caller already put one
// on the context.
func withLogger(ctx context.Context) context.Context {
	if zerolog.Ctx(ctx).GetLevel() != zerolog.Disabled {
		return ctx
	}
	return log.Logger.WithContext(ctx)
}

func (s Service) writeMetrics(path string, report types.ResolutionReport, installs []types.InstallResult) error {
	if strings.TrimSpace(path) == "" || s.NewMetrics == nil {
		return nil
	}
	metrics := s.NewMetrics()
	metrics.ObserveReport(report)
	if installs != nil {
		metrics.ObserveInstall(installs)
	}
	return metrics.WriteTextfile(path)
}

func writeOutputs(output ports.OutputPort, plan types.InstallationPlan, report types.ResolutionReport, python string) error {
	if err := output.WriteLockFile(plan); err != nil {
		return err
	}
	if err := output.WriteExcluded(plan.Excluded); err != nil {
		return err
	}
	if err := output.WriteInstallScript(plan, python); err != nil {
		return err
	}
	return output.WriteResolutionReport(report)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
