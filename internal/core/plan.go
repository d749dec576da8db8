package core

import (
	"context"
	"sort"

	assert "github.com/ZanzyTHEbar/assert-lib"

	"comfyui-deps/internal/policies"
	"comfyui-deps/internal/shared"
	"comfyui-deps/internal/types"
)

type PlanBuilder struct {
	Rules *policies.RuleTable
}

func NewPlanBuilder(rules *policies.RuleTable) PlanBuilder {
	return PlanBuilder{Rules: rules}
}

// Build orders resolved packages by tier rank, then score descending,
// then name. Tiers and index URLs are taken from the rule table so the
// plan never disagrees with it. Excluded packages are listed separately.
func (b PlanBuilder) Build(ctx context.Context, outcome types.ResolveOutcome) types.InstallationPlan {
	plan := types.InstallationPlan{
		Entries:  make([]types.ResolvedPackage, 0, len(outcome.Resolved)),
		Excluded: []types.ExcludedPackage{},
	}
	for _, resolved := range outcome.Resolved {
		assert.NotEmpty(ctx, resolved.Package, "resolved package must have a name")
		entry := resolved
		entry.ExtraIndexURLs = append([]string(nil), resolved.ExtraIndexURLs...)
		if b.Rules != nil {
			entry.Tier = b.Rules.Tier(entry.Package)
			if rule, ok := b.Rules.Rule(entry.Package); ok {
				entry.IndexURL = rule.IndexURL
				entry.ExtraIndexURLs = rule.ExtraIndexURLs
			}
		}
		if !entry.Tier.Valid() {
			entry.Tier = types.TierFlexible
		}
		plan.Entries = append(plan.Entries, entry)
	}
	sort.SliceStable(plan.Entries, func(i, j int) bool {
		a, c := plan.Entries[i], plan.Entries[j]
		if a.Tier.Rank() != c.Tier.Rank() {
			return a.Tier.Rank() < c.Tier.Rank()
		}
		if a.Score != c.Score {
			return a.Score > c.Score
		}
		return a.Package < c.Package
	})

	for _, name := range shared.NormalizePipNames(outcome.Excluded) {
		excluded := types.ExcludedPackage{Package: name}
		if b.Rules != nil {
			if rule, ok := b.Rules.Rule(name); ok {
				excluded.PreferredVersion = rule.PreferredVersion
				excluded.Reason = rule.Reason
			}
		}
		plan.Excluded = append(plan.Excluded, excluded)
	}
	sort.Slice(plan.Excluded, func(i, j int) bool {
		return plan.Excluded[i].Package < plan.Excluded[j].Package
	})
	return plan
}
