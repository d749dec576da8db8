package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"comfyui-deps/internal/types"
)

func TestTierWeightsDescendBy200(t *testing.T) {
	for i := 1; i < len(types.Tiers); i++ {
		assert.Equal(t, 200, TierWeight(types.Tiers[i-1])-TierWeight(types.Tiers[i]))
	}
	assert.Equal(t, TierWeightFlexible, TierWeight("UNKNOWN"))
}

func TestCandidateScore(t *testing.T) {
	assert.Equal(t, 1000+100+90, CandidateScore(types.TierCritical, true, 9))
	assert.Equal(t, 200+50, CandidateScore(types.TierFlexible, false, 5))
}
