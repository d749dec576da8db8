package policies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"comfyui-deps/internal/shared"
	"comfyui-deps/internal/types"
)

// RuleSourceID is the source recorded when a version comes from the rule
// table itself rather than from any requirement source.
const RuleSourceID = "rule-table"

// RuleTable is the immutable package version policy. Build it once with
// NewRuleTable and share the pointer; no method mutates it.
type RuleTable struct {
	rules        map[string]types.PackageVersionRule
	trust        types.SourceTrust
	defaultTrust int
}

// NewRuleTable validates rules and indexes them by normalized package
// name. At most one rule per package is allowed. trust is the source
// trust table applied to every rule; a rule's own SourceTrust entries take
// precedence over it. defaultTrust applies to unlisted sources and falls
// back to DefaultTrustWeight when not positive.
func NewRuleTable(rules []types.PackageVersionRule, trust types.SourceTrust, defaultTrust int) (*RuleTable, error) {
	if defaultTrust <= 0 {
		defaultTrust = DefaultTrustWeight
	}
	table := &RuleTable{
		rules:        make(map[string]types.PackageVersionRule, len(rules)),
		trust:        trust.Clone(),
		defaultTrust: defaultTrust,
	}
	for _, rule := range rules {
		normalized, err := normalizeRule(rule)
		if err != nil {
			return nil, err
		}
		if _, exists := table.rules[normalized.Package]; exists {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("duplicate version rule for %s", normalized.Package))
		}
		table.rules[normalized.Package] = normalized
	}
	return table, nil
}

// WithOverrides returns a new table with operator overrides merged over
// this one. Set fields replace the built-in value; a package without a
// built-in rule is added and must name a tier. Non-nil trust entries
// replace the matching global weights.
func (t *RuleTable) WithOverrides(overrides []types.RuleOverride, trust types.SourceTrust, defaultTrust int) (*RuleTable, error) {
	merged := make(map[string]types.PackageVersionRule, len(t.rules))
	for name, rule := range t.rules {
		merged[name] = rule
	}
	seen := map[string]struct{}{}
	for _, override := range overrides {
		name := shared.NormalizePipName(override.Package)
		if name == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("rule override package must not be empty")
		}
		if _, dup := seen[name]; dup {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("duplicate rule override for %s", name))
		}
		seen[name] = struct{}{}
		rule, err := applyOverride(merged[name], name, override)
		if err != nil {
			return nil, err
		}
		merged[name] = rule
	}

	globalTrust := t.trust.Clone()
	if globalTrust == nil {
		globalTrust = types.SourceTrust{}
	}
	for source, weight := range trust {
		globalTrust[source] = weight
	}
	if defaultTrust <= 0 {
		defaultTrust = t.defaultTrust
	}

	rules := make([]types.PackageVersionRule, 0, len(merged))
	for _, rule := range merged {
		rules = append(rules, rule)
	}
	return NewRuleTable(rules, globalTrust, defaultTrust)
}

// Rule returns a copy of the rule for a package name.
func (t *RuleTable) Rule(name string) (types.PackageVersionRule, bool) {
	rule, ok := t.rules[shared.NormalizePipName(name)]
	if !ok {
		return types.PackageVersionRule{}, false
	}
	return cloneRule(rule), true
}

// Tier returns the package tier; packages without a rule are FLEXIBLE.
func (t *RuleTable) Tier(name string) types.PriorityTier {
	if rule, ok := t.rules[shared.NormalizePipName(name)]; ok {
		return rule.Tier
	}
	return types.TierFlexible
}

// TrustWeight returns how much the package's policy trusts a source.
// Lookup order is the rule's own table, then the global table, then the
// default weight. Source identifiers of the form "owner/repo" also match
// an entry for "owner".
func (t *RuleTable) TrustWeight(name string, source string) int {
	keys := []string{source}
	if owner, _, ok := strings.Cut(source, "/"); ok && owner != "" {
		keys = append(keys, owner)
	}
	if rule, ok := t.rules[shared.NormalizePipName(name)]; ok {
		for _, key := range keys {
			if weight, found := rule.SourceTrust[key]; found {
				return weight
			}
		}
	}
	for _, key := range keys {
		if weight, found := t.trust[key]; found {
			return weight
		}
	}
	return t.defaultTrust
}

func (t *RuleTable) DefaultTrust() int {
	return t.defaultTrust
}

// SourceTrust returns a copy of the global trust table.
func (t *RuleTable) SourceTrust() types.SourceTrust {
	return t.trust.Clone()
}

// Rules returns every rule ordered by tier rank, then package name.
func (t *RuleTable) Rules() []types.PackageVersionRule {
	out := make([]types.PackageVersionRule, 0, len(t.rules))
	for _, rule := range t.rules {
		out = append(out, cloneRule(rule))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier.Rank() != out[j].Tier.Rank() {
			return out[i].Tier.Rank() < out[j].Tier.Rank()
		}
		return out[i].Package < out[j].Package
	})
	return out
}

func (t *RuleTable) Len() int {
	return len(t.rules)
}

func normalizeRule(rule types.PackageVersionRule) (types.PackageVersionRule, error) {
	rule.Package = shared.NormalizePipName(rule.Package)
	if rule.Package == "" {
		return types.PackageVersionRule{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("version rule package must not be empty")
	}
	tier, ok := types.ParsePriorityTier(string(rule.Tier))
	if !ok {
		return types.PackageVersionRule{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("version rule %s has invalid tier %q", rule.Package, rule.Tier))
	}
	rule.Tier = tier
	rule.PreferredVersion = strings.TrimSpace(rule.PreferredVersion)
	rule.MinVersion = strings.TrimSpace(rule.MinVersion)
	rule.MaxVersion = strings.TrimSpace(rule.MaxVersion)
	rule.IndexURL = strings.TrimSpace(rule.IndexURL)
	return cloneRule(rule), nil
}

func applyOverride(base types.PackageVersionRule, name string, override types.RuleOverride) (types.PackageVersionRule, error) {
	rule := cloneRule(base)
	rule.Package = name
	if strings.TrimSpace(override.Tier) != "" {
		tier, ok := types.ParsePriorityTier(override.Tier)
		if !ok {
			return types.PackageVersionRule{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("rule override %s has invalid tier %q", name, override.Tier))
		}
		rule.Tier = tier
	}
	if rule.Tier == "" {
		return types.PackageVersionRule{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("rule override %s adds a new rule and must set a tier", name))
	}
	if override.PreferredVersion != "" {
		rule.PreferredVersion = override.PreferredVersion
	}
	if override.MinVersion != "" {
		rule.MinVersion = override.MinVersion
	}
	if override.MaxVersion != "" {
		rule.MaxVersion = override.MaxVersion
	}
	if override.ExcludedVersions != nil {
		rule.ExcludedVersions = append([]string(nil), override.ExcludedVersions...)
	}
	if override.SourceTrust != nil {
		rule.SourceTrust = override.SourceTrust.Clone()
	}
	if override.IndexURL != "" {
		rule.IndexURL = override.IndexURL
	}
	if override.ExtraIndexURLs != nil {
		rule.ExtraIndexURLs = append([]string(nil), override.ExtraIndexURLs...)
	}
	if override.Reason != "" {
		rule.Reason = override.Reason
	}
	return rule, nil
}

func cloneRule(rule types.PackageVersionRule) types.PackageVersionRule {
	rule.ExcludedVersions = append([]string(nil), rule.ExcludedVersions...)
	rule.ExtraIndexURLs = append([]string(nil), rule.ExtraIndexURLs...)
	rule.SourceTrust = rule.SourceTrust.Clone()
	return rule
}
