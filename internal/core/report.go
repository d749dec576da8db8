package core

import (
	"fmt"
	"sort"
	"strings"

	"comfyui-deps/internal/policies"
	"comfyui-deps/internal/types"
)

// ReportInput carries everything one run produced.
type ReportInput struct {
	Aggregator   *Aggregator
	Conflicts    []types.ConflictRecord
	Outcome      types.ResolveOutcome
	Plan         types.InstallationPlan
	Incompatible []policies.IncompatiblePair
}

// BuildReport merges the run into an auditable report. Every resolved
// package that sits on a detected conflict is listed as an override with
// the full set of competing requirements.
func BuildReport(input ReportInput) types.ResolutionReport {
	agg := input.Aggregator
	if agg == nil {
		agg = NewAggregator()
	}
	conflicts := make(map[string]types.ConflictRecord, len(input.Conflicts))
	for _, record := range input.Conflicts {
		conflicts[record.Package] = record
	}

	var overrides []types.ConflictOverride
	for _, resolved := range input.Outcome.Resolved {
		record, ok := conflicts[resolved.Package]
		if !ok {
			continue
		}
		overrides = append(overrides, types.ConflictOverride{
			Package:         resolved.Package,
			ChosenVersion:   resolved.Version,
			Method:          resolved.Method,
			ChosenSource:    resolved.Source,
			Kind:            record.Kind,
			ConflictingPins: record.ExactVersions,
			Requirements:    record.Requirements,
		})
	}
	sort.SliceStable(overrides, func(i, j int) bool {
		return overrides[i].Package < overrides[j].Package
	})

	report := types.ResolutionReport{
		Summary: types.ReportSummary{
			TotalPackages:   len(agg.Packages()),
			Resolved:        len(input.Outcome.Resolved),
			Failed:          len(input.Outcome.Failed),
			Excluded:        countExcludedPresent(agg, input.Outcome.Excluded),
			Conflicts:       len(input.Conflicts),
			Overrides:       len(overrides),
			SourcesAnalyzed: len(agg.Sources()),
			SourcesDegraded: len(agg.Degraded()),
			ParseFailures:   len(agg.ParseFailures()),
		},
		Plan:            input.Plan,
		Conflicts:       input.Conflicts,
		Overrides:       overrides,
		Failed:          input.Outcome.Failed,
		DegradedSources: agg.Degraded(),
		ParseFailures:   agg.ParseFailures(),
		PackageSources:  agg.PackageSources(),
	}
	report.Recommendations = recommendations(report, input)
	return report
}

func recommendations(report types.ResolutionReport, input ReportInput) []string {
	var out []string
	if n := len(report.Conflicts); n > 0 {
		out = append(out, fmt.Sprintf("%d packages have conflicting version requests; review the overrides before installing", n))
	}
	if n := report.Summary.Excluded; n > 0 {
		out = append(out, fmt.Sprintf("%d excluded packages were requested by sources; install them separately", n))
	}
	if n := report.Summary.SourcesDegraded; n > 0 {
		out = append(out, fmt.Sprintf("%d sources could not be fetched; the plan may be incomplete", n))
	}
	if n := report.Summary.Failed; n > 0 {
		out = append(out, fmt.Sprintf("%d packages could not be resolved and are missing from the plan", n))
	}
	for _, record := range report.Conflicts {
		out = append(out, fmt.Sprintf("package %s conflicts across sources: %s", record.Package, strings.Join(requirementSources(record.Requirements), ", ")))
	}
	planned := make([]string, 0, len(input.Plan.Entries))
	for _, entry := range input.Plan.Entries {
		planned = append(planned, entry.Package)
	}
	for _, pair := range policies.FindIncompatible(input.Incompatible, planned) {
		out = append(out, fmt.Sprintf("%s and %s are both planned: %s", pair.First, pair.Second, pair.Reason))
	}
	return out
}

func requirementSources(reqs []types.SourcedRequirement) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, req := range reqs {
		if _, ok := seen[req.Source]; ok {
			continue
		}
		seen[req.Source] = struct{}{}
		out = append(out, req.Source)
	}
	return out
}

// countExcludedPresent counts excluded names that some source asked for.
func countExcludedPresent(agg *Aggregator, excluded []string) int {
	count := 0
	for _, name := range excluded {
		if len(agg.Bucket(name)) > 0 {
			count++
		}
	}
	return count
}
