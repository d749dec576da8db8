package app

import "context"

// Validate loads and checks the config and its rule overrides without
// fetching any source.
func (s Service) Validate(_ context.Context, req ValidateRequest) (ValidateResult, error) {
	cfg, err := s.loadConfig(req.Options)
	if err != nil {
		return ValidateResult{}, err
	}
	table, err := buildRuleTable(cfg)
	if err != nil {
		return ValidateResult{}, err
	}
	return ValidateResult{
		Sources:   len(cfg.Sources),
		Rules:     table.Len(),
		Excluded:  len(cfg.Excluded),
		Additions: len(cfg.AdditionalPackages),
	}, nil
}
