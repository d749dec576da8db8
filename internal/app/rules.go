package app

import (
	"strings"

	"comfyui-deps/internal/types"
)

// Rules lists the effective rule table grouped by tier, with the config
// overrides applied when a config is given.
func (s Service) Rules(req RulesRequest) (RulesResult, error) {
	cfg := types.Config{}
	if path := strings.TrimSpace(req.ConfigPath); path != "" {
		loaded, err := s.ConfigLoader.LoadConfig(path)
		if err != nil {
			return RulesResult{}, err
		}
		cfg = loaded
	}
	table, err := buildRuleTable(cfg)
	if err != nil {
		return RulesResult{}, err
	}

	byTier := map[types.PriorityTier][]types.PackageVersionRule{}
	for _, rule := range table.Rules() {
		byTier[rule.Tier] = append(byTier[rule.Tier], rule)
	}
	var groups []RuleGroup
	for _, tier := range types.Tiers {
		if rules := byTier[tier]; len(rules) > 0 {
			groups = append(groups, RuleGroup{Tier: tier, Rules: rules})
		}
	}
	return RulesResult{
		Groups:       groups,
		SourceTrust:  table.SourceTrust(),
		DefaultTrust: table.DefaultTrust(),
	}, nil
}
