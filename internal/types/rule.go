package types

// SourceTrust maps a source identifier to its trust weight. Higher is
// more trusted.
type SourceTrust map[string]int

// Weight returns the weight for source, or fallback when it is unlisted.
func (t SourceTrust) Weight(source string, fallback int) int {
	if weight, ok := t[source]; ok {
		return weight
	}
	return fallback
}

// Clone returns an independent copy so callers cannot mutate shared tables.
func (t SourceTrust) Clone() SourceTrust {
	if t == nil {
		return nil
	}
	out := make(SourceTrust, len(t))
	for key, value := range t {
		out[key] = value
	}
	return out
}

type PackageVersionRule struct {
	Package          string       `yaml:"package"`
	Tier             PriorityTier `yaml:"tier"`
	PreferredVersion string       `yaml:"preferred_version,omitempty"`
	MinVersion       string       `yaml:"min_version,omitempty"`
	MaxVersion       string       `yaml:"max_version,omitempty"`
	ExcludedVersions []string     `yaml:"excluded_versions,omitempty"`
	SourceTrust      SourceTrust  `yaml:"source_trust,omitempty"`
	IndexURL         string       `yaml:"index_url,omitempty"`
	ExtraIndexURLs   []string     `yaml:"extra_index_urls,omitempty"`
	Reason           string       `yaml:"reason,omitempty"`
}

// RuleOverride is an operator supplied change to the built-in table.
// Empty fields keep the built-in value; a package without a built-in
// rule needs a tier.
type RuleOverride struct {
	Package          string      `yaml:"package"`
	Tier             string      `yaml:"tier,omitempty"`
	PreferredVersion string      `yaml:"preferred_version,omitempty"`
	MinVersion       string      `yaml:"min_version,omitempty"`
	MaxVersion       string      `yaml:"max_version,omitempty"`
	ExcludedVersions []string    `yaml:"excluded_versions,omitempty"`
	SourceTrust      SourceTrust `yaml:"source_trust,omitempty"`
	IndexURL         string      `yaml:"index_url,omitempty"`
	ExtraIndexURLs   []string    `yaml:"extra_index_urls,omitempty"`
	Reason           string      `yaml:"reason,omitempty"`
}
