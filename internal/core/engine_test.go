package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"comfyui-deps/internal/policies"
	"comfyui-deps/internal/types"
)

var engineSources = []sourceLines{
	{id: types.AdditionalSourceID, lines: policies.DefaultAdditionalPackages()},
	{id: "comfyanonymous/ComfyUI", lines: []string{
		"torch", "torchsde", "torchvision", "torchaudio", "numpy>=1.25.0", "einops",
		"transformers>=4.37.2", "safetensors>=0.4.2", "aiohttp>=3.11.8", "pyyaml", "Pillow", "scipy", "tqdm", "psutil",
	}},
	{id: "ltdrdata/ComfyUI-Impact-Pack", lines: []string{
		"segment-anything", "scikit-image", "piexif", "transformers", "opencv-python-headless", "scipy>=1.11.4", "numpy<2", "dill", "matplotlib",
	}},
	{id: "kijai/ComfyUI-KJNodes", lines: []string{"pillow>=10.3.0", "scipy", "color-matcher", "matplotlib", "huggingface_hub", "mss", "opencv-python"}},
	{id: "someone/legacy-node", lines: []string{"numpy==1.24.0", "opencv-python==4.7.0.72", "insightface==0.7.3", "foo==1.0", "timm<0.8", "this is not valid"}},
	{id: "another/node", lines: []string{"foo==2.0", "timm>=0.9"}},
}

func runEngine(t *testing.T, excluded []string) (types.InstallationPlan, types.ResolutionReport) {
	t.Helper()
	engine, err := NewEngine(defaultRules(t), nil)
	require.NoError(t, err)
	for _, source := range engineSources {
		engine.AddSource(t.Context(), source.id, source.lines)
	}
	engine.MarkDegraded("offline/node", "timeout")
	engine.DetectConflicts(t.Context())
	outcome, err := engine.Resolve(t.Context(), excluded)
	require.NoError(t, err)
	plan := engine.BuildPlan(t.Context(), outcome)
	return plan, engine.Report()
}

func TestEngineIsDeterministic(t *testing.T) {
	excluded := policies.DefaultExcluded()
	firstPlan, firstReport := runEngine(t, excluded)
	first, err := yaml.Marshal(firstReport)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		plan, report := runEngine(t, excluded)
		if diff := cmp.Diff(firstPlan, plan); diff != "" {
			t.Fatalf("plan changed between runs (-want +got):\n%s", diff)
		}
		again, err := yaml.Marshal(report)
		require.NoError(t, err)
		require.Equal(t, string(first), string(again))
	}
}

func TestEngineEndToEnd(t *testing.T) {
	plan, report := runEngine(t, policies.DefaultExcluded())

	byName := map[string]types.ResolvedPackage{}
	for _, entry := range plan.Entries {
		byName[entry.Package] = entry
	}
	assert.Equal(t, "2.6.0", byName["torch"].Version)
	assert.Equal(t, types.MethodRulePreferred, byName["torch"].Method)
	assert.Equal(t, "1.26.4", byName["numpy"].Version)
	assert.Equal(t, "4.8.0.76", byName["opencv-python"].Version)
	assert.Equal(t, "2.0", byName["foo"].Version)
	assert.Equal(t, "pillow", byName["pillow"].Package)
	assert.NotContains(t, byName, "insightface")
	assert.NotContains(t, byName, "bizyengine")
	assert.Equal(t, types.TierCritical, plan.Entries[0].Tier)

	assert.Equal(t, 7, report.Summary.SourcesAnalyzed)
	assert.Equal(t, 1, report.Summary.SourcesDegraded)
	assert.Equal(t, 1, report.Summary.ParseFailures)
	assert.Equal(t, len(plan.Entries), report.Summary.Resolved)

	conflicted := map[string]types.ConflictRecord{}
	for _, record := range report.Conflicts {
		conflicted[record.Package] = record
	}
	require.Contains(t, conflicted, "foo")
	require.Contains(t, conflicted, "numpy")
	require.Contains(t, conflicted, "opencv-python")
	require.Contains(t, conflicted, "timm")
	assert.Equal(t, types.ConflictKindEmptyRange, conflicted["timm"].Kind)
	assert.NotContains(t, conflicted, "scipy")

	overridden := map[string]types.ConflictOverride{}
	for _, override := range report.Overrides {
		overridden[override.Package] = override
	}
	require.Contains(t, overridden, "foo")
	assert.Equal(t, "2.0", overridden["foo"].ChosenVersion)
	if diff := cmp.Diff([]string{"1.0", "2.0"}, overridden["foo"].ConflictingPins); diff != "" {
		t.Fatalf("unexpected conflicting versions (-want +got):\n%s", diff)
	}
	assert.NotEmpty(t, report.Recommendations)
}

func TestEngineRequiresRules(t *testing.T) {
	_, err := NewEngine(nil, nil)
	require.Error(t, err)
}

func TestEngineGetRule(t *testing.T) {
	engine, err := NewEngine(defaultRules(t), nil)
	require.NoError(t, err)
	rule, ok := engine.GetRule("xformers")
	require.True(t, ok)
	assert.Equal(t, "0.0.29.post3", rule.PreferredVersion)
	_, ok = engine.GetRule("unknown-package")
	assert.False(t, ok)
}
