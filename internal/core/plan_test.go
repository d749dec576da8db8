package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comfyui-deps/internal/types"
)

func TestPlanOrdersByTierScoreThenName(t *testing.T) {
	rules := defaultRules(t)
	outcome := types.ResolveOutcome{
		Resolved: []types.ResolvedPackage{
			{Package: "zeta", Version: "1.0", Score: 250},
			{Package: "alpha", Version: "1.0", Score: 250},
			{Package: "numpy", Version: "1.26.4", Score: 950},
			{Package: "pillow", Version: "10.1.0", Score: 850},
			{Package: "torch", Version: "2.6.0", Score: 1200},
			{Package: "diffusers", Version: "0.29.0", Score: 650},
			{Package: "beta", Version: "1.0", Score: 290},
		},
		Excluded: []string{"dlib", "voluptuous"},
	}
	plan := NewPlanBuilder(rules).Build(t.Context(), outcome)

	names := make([]string, 0, len(plan.Entries))
	for _, entry := range plan.Entries {
		names = append(names, entry.Package)
	}
	want := []string{"torch", "numpy", "pillow", "diffusers", "beta", "alpha", "zeta"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("unexpected plan order (-want +got):\n%s", diff)
	}
	assert.Equal(t, "https://download.pytorch.org/whl/cu121", plan.Entries[0].IndexURL)

	for i := 1; i < len(plan.Entries); i++ {
		prev, cur := plan.Entries[i-1], plan.Entries[i]
		require.LessOrEqual(t, prev.Tier.Rank(), cur.Tier.Rank())
		if prev.Tier == cur.Tier {
			require.GreaterOrEqual(t, prev.Score, cur.Score)
		}
	}

	wantExcluded := []types.ExcludedPackage{
		{Package: "dlib", PreferredVersion: "19.24.2", Reason: "slow native build; stick to a known good release"},
		{Package: "voluptuous"},
	}
	if diff := cmp.Diff(wantExcluded, plan.Excluded); diff != "" {
		t.Fatalf("unexpected excluded list (-want +got):\n%s", diff)
	}
}

func TestPlanDoesNotMutateOutcome(t *testing.T) {
	outcome := types.ResolveOutcome{
		Resolved: []types.ResolvedPackage{
			{Package: "b", Version: "1", Score: 1},
			{Package: "a", Version: "1", Score: 1},
		},
	}
	NewPlanBuilder(defaultRules(t)).Build(t.Context(), outcome)
	assert.Equal(t, "b", outcome.Resolved[0].Package)
}
