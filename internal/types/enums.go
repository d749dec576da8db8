package types

import "strings"

type ConstraintOp string

const (
	ConstraintOpNone      ConstraintOp = ""
	ConstraintOpEq        ConstraintOp = "=="
	ConstraintOpArbitrary ConstraintOp = "==="
	ConstraintOpNe        ConstraintOp = "!="
	ConstraintOpCompat    ConstraintOp = "~="
	ConstraintOpGte       ConstraintOp = ">="
	ConstraintOpLte       ConstraintOp = "<="
	ConstraintOpGt        ConstraintOp = ">"
	ConstraintOpLt        ConstraintOp = "<"
)

// IsExact reports whether the operator pins a single version.
func (op ConstraintOp) IsExact() bool {
	return op == ConstraintOpEq || op == ConstraintOpArbitrary
}

// PriorityTier controls how aggressively a package's version is pinned by
// policy instead of negotiated between sources. The zero value is not a
// valid tier; use TierFlexible for packages without a rule.
type PriorityTier string

const (
	TierCritical PriorityTier = "CRITICAL"
	TierHigh     PriorityTier = "HIGH"
	TierMedium   PriorityTier = "MEDIUM"
	TierLow      PriorityTier = "LOW"
	TierFlexible PriorityTier = "FLEXIBLE"
)

// Tiers lists every tier from most to least strict.
var Tiers = []PriorityTier{TierCritical, TierHigh, TierMedium, TierLow, TierFlexible}

// Rank returns 1 for CRITICAL through 5 for FLEXIBLE. Unknown tiers rank
// after FLEXIBLE.
func (t PriorityTier) Rank() int {
	switch t {
	case TierCritical:
		return 1
	case TierHigh:
		return 2
	case TierMedium:
		return 3
	case TierLow:
		return 4
	case TierFlexible:
		return 5
	default:
		return 6
	}
}

func (t PriorityTier) Valid() bool {
	return t.Rank() <= 5
}

// ParsePriorityTier accepts tier names case-insensitively.
func ParsePriorityTier(value string) (PriorityTier, bool) {
	tier := PriorityTier(strings.ToUpper(strings.TrimSpace(value)))
	if !tier.Valid() {
		return "", false
	}
	return tier, true
}

type ResolutionMethod string

const (
	MethodRulePreferred    ResolutionMethod = "rule-preferred"
	MethodConflictResolved ResolutionMethod = "conflict-resolved"
	MethodHeuristic        ResolutionMethod = "heuristic"
	MethodFallback         ResolutionMethod = "fallback"
	MethodFallbackLatest   ResolutionMethod = "fallback-latest"
)

// Methods lists every resolution method in the order they are tried.
var Methods = []ResolutionMethod{
	MethodConflictResolved,
	MethodRulePreferred,
	MethodHeuristic,
	MethodFallback,
	MethodFallbackLatest,
}

type ConflictKind string

const (
	ConflictKindExactPin   ConflictKind = "exact-pin"
	ConflictKindEmptyRange ConflictKind = "empty-range"
)

// VersionUnconstrained marks a package the installer may pick freely.
const VersionUnconstrained = "unconstrained"
