package core

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"comfyui-deps/internal/policies"
	"comfyui-deps/internal/types"
)

// Engine runs one resolution pass: add sources, detect conflicts,
// resolve, then build the plan. An Engine is single use; start a new one
// for every run.
type Engine struct {
	rules        *policies.RuleTable
	aggregator   *Aggregator
	detector     ConflictDetector
	resolver     ResolverCore
	planner      PlanBuilder
	incompatible []policies.IncompatiblePair

	detected  bool
	conflicts []types.ConflictRecord
	outcome   types.ResolveOutcome
	plan      types.InstallationPlan
}

func NewEngine(rules *policies.RuleTable, forced map[string]string) (*Engine, error) {
	if rules == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("engine requires a rule table")
	}
	return &Engine{
		rules:        rules,
		aggregator:   NewAggregator(),
		detector:     NewConflictDetector(),
		resolver:     NewResolverCore(rules, forced),
		planner:      NewPlanBuilder(rules),
		incompatible: policies.DefaultIncompatiblePairs(),
	}, nil
}

// AddSource feeds one source. Callers must add sources in a fixed order.
func (e *Engine) AddSource(ctx context.Context, sourceID string, lines []string) int {
	return e.aggregator.AddSource(ctx, sourceID, lines)
}

func (e *Engine) MarkDegraded(sourceID string, reason string) {
	e.aggregator.MarkDegraded(sourceID, reason)
}

func (e *Engine) DetectConflicts(ctx context.Context) []types.ConflictRecord {
	e.conflicts = e.detector.Detect(ctx, e.aggregator)
	e.detected = true
	return e.conflicts
}

// Resolve detects conflicts first when DetectConflicts was not called so
// overrides are always flagged.
func (e *Engine) Resolve(ctx context.Context, excluded []string) (types.ResolveOutcome, error) {
	if !e.detected {
		e.DetectConflicts(ctx)
	}
	outcome, err := e.resolver.Resolve(ctx, e.aggregator, e.conflicts, excluded)
	if err != nil {
		return types.ResolveOutcome{}, err
	}
	e.outcome = outcome
	return outcome, nil
}

func (e *Engine) BuildPlan(ctx context.Context, outcome types.ResolveOutcome) types.InstallationPlan {
	e.plan = e.planner.Build(ctx, outcome)
	return e.plan
}

func (e *Engine) GetRule(name string) (types.PackageVersionRule, bool) {
	return e.rules.Rule(name)
}

func (e *Engine) Aggregator() *Aggregator {
	return e.aggregator
}

// Report summarizes the latest conflicts, outcome and plan.
func (e *Engine) Report() types.ResolutionReport {
	return BuildReport(ReportInput{
		Aggregator:   e.aggregator,
		Conflicts:    e.conflicts,
		Outcome:      e.outcome,
		Plan:         e.plan,
		Incompatible: e.incompatible,
	})
}
