package types

import "strings"

type Specifier struct {
	Op      ConstraintOp `yaml:"op"`
	Version string       `yaml:"version"`
}

func (s Specifier) String() string {
	return string(s.Op) + s.Version
}

// IsPin reports whether the specifier names exactly one version.
// Prefix matches such as "==1.2.*" are ranges, not pins.
func (s Specifier) IsPin() bool {
	return s.Op.IsExact() && !strings.HasSuffix(s.Version, ".*")
}

// Requirement is one parsed requirement line. Name is the normalized
// package identity used as the key everywhere downstream.
type Requirement struct {
	Name       string      `yaml:"name"`
	Specifiers []Specifier `yaml:"specifiers,omitempty"`
	Extras     []string    `yaml:"extras,omitempty"`
	Marker     string      `yaml:"marker,omitempty"`
}

// HasVersion reports whether any specifier constrains the version.
func (r Requirement) HasVersion() bool {
	return len(r.Specifiers) > 0
}

// ExactVersions returns the versions of every pinning specifier in order.
func (r Requirement) ExactVersions() []string {
	var out []string
	for _, spec := range r.Specifiers {
		if spec.IsPin() {
			out = append(out, spec.Version)
		}
	}
	return out
}

// SpecifierString renders the specifiers as a comma separated PEP 440
// specifier set, e.g. ">=1.2,<2.0".
func (r Requirement) SpecifierString() string {
	parts := make([]string, 0, len(r.Specifiers))
	for _, spec := range r.Specifiers {
		parts = append(parts, spec.String())
	}
	return strings.Join(parts, ",")
}

type SourcedRequirement struct {
	Source      string      `yaml:"source"`
	Requirement Requirement `yaml:"requirement"`
	Raw         string      `yaml:"raw"`
}

type ParseFailure struct {
	Source string `yaml:"source"`
	Line   string `yaml:"line"`
	Reason string `yaml:"reason"`
}

type DegradedSource struct {
	Source string `yaml:"source"`
	Reason string `yaml:"reason"`
}
