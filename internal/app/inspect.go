package app

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"comfyui-deps/internal/adapters"
	"comfyui-deps/internal/core"
	"comfyui-deps/internal/types"
)

// Inspect summarizes the outputs of an earlier resolve run. The lock file
// is authoritative for what gets installed; the report supplies the rest.
func (s Service) Inspect(req InspectRequest) (InspectResult, error) {
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	lock, err := s.OutputReader.ReadLockFile(filepath.Join(outputDir, adapters.LockFileName))
	if err != nil {
		return InspectResult{}, err
	}
	report, err := s.OutputReader.ReadResolutionReport(filepath.Join(outputDir, adapters.ReportFileName))
	if err != nil {
		return InspectResult{}, err
	}

	tiers := summarizeLock(lock)
	var summaries []InspectTierSummary
	for _, tier := range types.Tiers {
		packages, ok := tiers[tier]
		if !ok {
			continue
		}
		sort.Strings(packages)
		summaries = append(summaries, InspectTierSummary{
			Tier:     tier,
			Count:    len(packages),
			Packages: packages,
		})
	}
	return InspectResult{
		Summary:         report.Summary,
		GeneratedAt:     report.GeneratedAt,
		Tiers:           summaries,
		Excluded:        report.Plan.Excluded,
		Overrides:       report.Overrides,
		Failed:          report.Failed,
		Recommendations: report.Recommendations,
	}, nil
}

func summarizeLock(entries []types.LockEntry) map[types.PriorityTier][]string {
	tiers := map[types.PriorityTier][]string{}
	for _, entry := range entries {
		name := entry.Spec
		if req, err := core.ParseRequirement(entry.Spec); err == nil {
			name = req.Name
		}
		tiers[entry.Tier] = append(tiers[entry.Tier], name)
	}
	return tiers
}
