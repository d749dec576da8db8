package app

import (
	"time"

	"comfyui-deps/internal/types"
)

// SourceOptions selects the requirement sources and run settings. Values
// set here are merged over the config file.
type SourceOptions struct {
	ConfigPath        string
	Sources           []string
	RequirementsFiles []string
	CustomNodesDir    string
	Excluded          []string
	Workers           int
	TimeoutSec        int
}

type ValidateRequest struct {
	Options SourceOptions
}

type ValidateResult struct {
	Sources   int
	Rules     int
	Excluded  int
	Additions int
}

type ResolveRequest struct {
	Options     SourceOptions
	OutputDir   string
	Python      string
	VerifyIndex bool
	MetricsFile string
}

type ResolveResult struct {
	OutputDir string
	Report    types.ResolutionReport
}

type AnalyzeRequest struct {
	Options SourceOptions
}

type AnalyzeResult struct {
	Report types.ResolutionReport
}

type InstallRequest struct {
	Options     SourceOptions
	OutputDir   string
	Python      string
	DryRun      bool
	ExtraArgs   []string
	MetricsFile string
}

type InstallResult struct {
	Report  types.ResolutionReport
	Results []types.InstallResult
	Failed  []string
}

type RulesRequest struct {
	ConfigPath string
}

type RuleGroup struct {
	Tier  types.PriorityTier
	Rules []types.PackageVersionRule
}

type RulesResult struct {
	Groups       []RuleGroup
	SourceTrust  types.SourceTrust
	DefaultTrust int
}

type InspectRequest struct {
	OutputDir string
}

type InspectTierSummary struct {
	Tier     types.PriorityTier
	Count    int
	Packages []string
}

type InspectResult struct {
	Summary         types.ReportSummary
	GeneratedAt     time.Time
	Tiers           []InspectTierSummary
	Excluded        []types.ExcludedPackage
	Overrides       []types.ConflictOverride
	Failed          []types.FailedPackage
	Recommendations []string
}
