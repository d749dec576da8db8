package app

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comfyui-deps/internal/policies"
	"comfyui-deps/internal/types"
)

func TestValidateSampleConfig(t *testing.T) {
	service := NewService()
	result, err := service.Validate(t.Context(), ValidateRequest{
		Options: SourceOptions{ConfigPath: "../../configs/comfyui-deps.yaml"},
	})
	require.NoError(t, err)
	want := ValidateResult{
		Sources:   13,
		Rules:     result.Rules,
		Excluded:  len(policies.DefaultExcluded()),
		Additions: len(policies.DefaultAdditionalPackages()),
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("unexpected validate result (-want +got):\n%s", diff)
	}
	// onnxruntime-gpu is added by the sample config.
	assert.Equal(t, len(policies.DefaultRules())+1, result.Rules)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{
			name:   "bad tier",
			config: "rules:\n  - package: numpy\n    tier: urgent\n",
		},
		{
			name:   "bad forced version",
			config: "forced:\n  numpy: not-a-version\n",
		},
		{
			name:   "bad additional package",
			config: "additional_packages:\n  - \"torch==\"\n",
		},
		{
			name:   "unsupported scheme",
			config: "sources:\n  - url: ftp://example.com/requirements.txt\n",
		},
		{
			name:   "new rule without tier",
			config: "rules:\n  - package: brand-new\n    preferred_version: \"1.0\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(sampleFetcher()).Validate(t.Context(), ValidateRequest{
				Options: SourceOptions{ConfigPath: writeConfig(t, tt.config)},
			})
			require.Error(t, err)
			assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
		})
	}
}

func TestValidateMissingConfig(t *testing.T) {
	_, err := NewService().Validate(t.Context(), ValidateRequest{
		Options: SourceOptions{ConfigPath: "does-not-exist.yaml"},
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestRulesGroupsByTier(t *testing.T) {
	result, err := NewService().Rules(RulesRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, result.Groups)
	assert.Equal(t, types.TierCritical, result.Groups[0].Tier)
	for i := 1; i < len(result.Groups); i++ {
		assert.Less(t, result.Groups[i-1].Tier.Rank(), result.Groups[i].Tier.Rank())
	}
	assert.Equal(t, policies.DefaultTrustWeight, result.DefaultTrust)
	assert.Equal(t, 10, result.SourceTrust[types.AdditionalSourceID])
}

func TestRulesAppliesConfigOverrides(t *testing.T) {
	configPath := writeConfig(t, `
rules:
  - package: onnxruntime-gpu
    tier: high
    min_version: "1.18.0"
source_trust:
  crystian: 6
default_trust: 3
`)
	result, err := NewService().Rules(RulesRequest{ConfigPath: configPath})
	require.NoError(t, err)

	var found *types.PackageVersionRule
	for _, group := range result.Groups {
		for i := range group.Rules {
			if group.Rules[i].Package == "onnxruntime-gpu" {
				found = &group.Rules[i]
			}
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, types.TierHigh, found.Tier)
	assert.Equal(t, "1.18.0", found.MinVersion)
	assert.Equal(t, 6, result.SourceTrust["crystian"])
	assert.Equal(t, 3, result.DefaultTrust)
}
