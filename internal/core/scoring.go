package core

import "comfyui-deps/internal/types"

// Heuristic scoring weights. A candidate scores its tier weight, plus the
// preferred bonus when it is the rule's preferred version, plus the trust
// multiplier times the weight of the source that requested it.
const (
	TierWeightCritical = 1000
	TierWeightHigh     = 800
	TierWeightMedium   = 600
	TierWeightLow      = 400
	TierWeightFlexible = 200

	PreferredVersionBonus = 100
	SourceTrustMultiplier = 10
)

// TierWeight returns the base score of a tier. Unknown tiers weigh as
// FLEXIBLE.
func TierWeight(tier types.PriorityTier) int {
	switch tier {
	case types.TierCritical:
		return TierWeightCritical
	case types.TierHigh:
		return TierWeightHigh
	case types.TierMedium:
		return TierWeightMedium
	case types.TierLow:
		return TierWeightLow
	default:
		return TierWeightFlexible
	}
}

func CandidateScore(tier types.PriorityTier, preferred bool, trust int) int {
	score := TierWeight(tier) + SourceTrustMultiplier*trust
	if preferred {
		score += PreferredVersionBonus
	}
	return score
}
