package types

import "time"

type ConflictRecord struct {
	Package       string               `yaml:"package"`
	Kind          ConflictKind         `yaml:"kind"`
	ExactVersions []string             `yaml:"exact_versions,omitempty"`
	Requirements  []SourcedRequirement `yaml:"requirements"`
	Detail        string               `yaml:"detail,omitempty"`
}

type ResolvedPackage struct {
	Package           string           `yaml:"package"`
	Version           string           `yaml:"version"`
	Specifier         string           `yaml:"specifier,omitempty"`
	Method            ResolutionMethod `yaml:"method"`
	Score             int              `yaml:"score"`
	Source            string           `yaml:"source"`
	Tier              PriorityTier     `yaml:"tier"`
	IndexURL          string           `yaml:"index_url,omitempty"`
	ExtraIndexURLs    []string         `yaml:"extra_index_urls,omitempty"`
	OverridesConflict bool             `yaml:"overrides_conflict,omitempty"`
}

// Unconstrained reports whether the installer should pick the version.
func (p ResolvedPackage) Unconstrained() bool {
	return p.Version == "" || p.Version == VersionUnconstrained
}

type FailedPackage struct {
	Package string `yaml:"package"`
	Reason  string `yaml:"reason"`
}

type ResolveOutcome struct {
	Resolved []ResolvedPackage
	Failed   []FailedPackage
	Excluded []string
}

type ExcludedPackage struct {
	Package          string `yaml:"package"`
	PreferredVersion string `yaml:"preferred_version,omitempty"`
	Reason           string `yaml:"reason,omitempty"`
}

type InstallationPlan struct {
	Entries  []ResolvedPackage `yaml:"entries"`
	Excluded []ExcludedPackage `yaml:"excluded,omitempty"`
}

// ConflictOverride records that a resolved version was chosen despite a
// detected conflict.
type ConflictOverride struct {
	Package         string               `yaml:"package"`
	ChosenVersion   string               `yaml:"chosen_version"`
	Method          ResolutionMethod     `yaml:"method"`
	ChosenSource    string               `yaml:"chosen_source"`
	Kind            ConflictKind         `yaml:"kind"`
	ConflictingPins []string             `yaml:"conflicting_versions,omitempty"`
	Requirements    []SourcedRequirement `yaml:"requirements"`
}

type ReportSummary struct {
	TotalPackages   int `yaml:"total_packages"`
	Resolved        int `yaml:"resolved"`
	Failed          int `yaml:"failed"`
	Excluded        int `yaml:"excluded"`
	Conflicts       int `yaml:"conflicts"`
	Overrides       int `yaml:"overrides"`
	SourcesAnalyzed int `yaml:"sources_analyzed"`
	SourcesDegraded int `yaml:"sources_degraded"`
	ParseFailures   int `yaml:"parse_failures"`
}

type ResolutionReport struct {
	Summary         ReportSummary       `yaml:"summary"`
	Plan            InstallationPlan    `yaml:"plan"`
	Conflicts       []ConflictRecord    `yaml:"conflicts,omitempty"`
	Overrides       []ConflictOverride  `yaml:"overrides,omitempty"`
	Failed          []FailedPackage     `yaml:"failed,omitempty"`
	DegradedSources []DegradedSource    `yaml:"degraded_sources,omitempty"`
	ParseFailures   []ParseFailure      `yaml:"parse_failures,omitempty"`
	PackageSources  map[string][]string `yaml:"package_sources,omitempty"`
	IndexChecks     []IndexCheck        `yaml:"index_checks,omitempty"`
	Recommendations []string            `yaml:"recommendations,omitempty"`
	GeneratedAt     time.Time           `yaml:"generated_at,omitempty"`
}

// IndexCheck records whether a pinned version is published on the index
// pip will use for it.
type IndexCheck struct {
	Package   string `yaml:"package"`
	Version   string `yaml:"version"`
	Available bool   `yaml:"available"`
	Index     string `yaml:"index,omitempty"`
	Latest    string `yaml:"latest,omitempty"`
	Error     string `yaml:"error,omitempty"`
}

type InstallResult struct {
	Package  string `yaml:"package"`
	Spec     string `yaml:"spec"`
	Success  bool   `yaml:"success"`
	Attempts int    `yaml:"attempts"`
	Error    string `yaml:"error,omitempty"`
}

// LockEntry is one line of requirements.lock.txt.
type LockEntry struct {
	Tier PriorityTier
	Spec string
}
