package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"comfyui-deps/internal/policies"
	"comfyui-deps/internal/shared"
	"comfyui-deps/internal/types"
)

// ForcedSourceID is recorded as the source of an operator forced version.
const ForcedSourceID = "forced"

// ResolverCore picks one version per aggregated package. Resolution is
// total: every non-excluded package ends up resolved or failed, and
// neither conflicts nor bound violations abort the run.
type ResolverCore struct {
	Rules  *policies.RuleTable
	Forced map[string]string
}

func NewResolverCore(rules *policies.RuleTable, forced map[string]string) ResolverCore {
	normalized := make(map[string]string, len(forced))
	for name, version := range forced {
		normalized[shared.NormalizePipName(name)] = strings.TrimSpace(version)
	}
	return ResolverCore{Rules: rules, Forced: normalized}
}

type candidate struct {
	version string
	source  string
	order   int
	score   int
}

func (r ResolverCore) Resolve(ctx context.Context, agg *Aggregator, conflicts []types.ConflictRecord, excluded []string) (types.ResolveOutcome, error) {
	if r.Rules == nil || agg == nil {
		return types.ResolveOutcome{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("resolver requires a rule table and an aggregator")
	}

	excludedSet := map[string]struct{}{}
	for _, name := range shared.NormalizePipNames(excluded) {
		excludedSet[name] = struct{}{}
	}
	conflicted := make(map[string]types.ConflictRecord, len(conflicts))
	for _, record := range conflicts {
		conflicted[record.Package] = record
	}

	cache := newVersionCache()
	outcome := types.ResolveOutcome{
		Resolved: []types.ResolvedPackage{},
		Failed:   []types.FailedPackage{},
		Excluded: sortedKeys(excludedSet),
	}
	for _, name := range agg.Packages() {
		if _, skip := excludedSet[name]; skip {
			log.Ctx(ctx).Debug().Str("package", name).Msg("package excluded")
			continue
		}
		resolved, err := r.resolvePackage(name, agg.Bucket(name), cache)
		if err != nil {
			outcome.Failed = append(outcome.Failed, types.FailedPackage{
				Package: name,
				Reason:  shared.ErrorMessage(err),
			})
			log.Ctx(ctx).Warn().Str("package", name).Err(err).Msg("package could not be resolved")
			continue
		}
		if record, ok := conflicted[name]; ok {
			resolved.OverridesConflict = true
			log.Ctx(ctx).Warn().
				Str("package", name).
				Str("version", resolved.Version).
				Str("method", string(resolved.Method)).
				Strs("conflicting", record.ExactVersions).
				Msg("resolution overrides a detected conflict")
		}
		log.Ctx(ctx).Debug().
			Str("package", name).
			Str("version", resolved.Version).
			Str("method", string(resolved.Method)).
			Int("score", resolved.Score).
			Msg("package resolved")
		outcome.Resolved = append(outcome.Resolved, resolved)
	}
	return outcome, nil
}

func (r ResolverCore) resolvePackage(name string, bucket []types.SourcedRequirement, cache *versionCache) (types.ResolvedPackage, error) {
	if len(bucket) == 0 {
		return types.ResolvedPackage{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("no requirements recorded for %s", name))
	}
	rule, hasRule := r.Rules.Rule(name)
	tier := r.Rules.Tier(name)
	base := types.ResolvedPackage{
		Package:        name,
		Tier:           tier,
		IndexURL:       rule.IndexURL,
		ExtraIndexURLs: rule.ExtraIndexURLs,
	}

	if forced, ok := r.Forced[name]; ok && forced != "" {
		base.Version = forced
		base.Method = types.MethodConflictResolved
		base.Source = ForcedSourceID
		base.Score = CandidateScore(tier, hasRule && cache.equal(forced, rule.PreferredVersion), r.Rules.TrustWeight(name, ForcedSourceID))
		return base, nil
	}

	if hasRule && rule.PreferredVersion != "" && withinRule(rule, rule.PreferredVersion, cache) {
		if ok, err := cache.satisfiesRequirements(rule.PreferredVersion, bucket); err == nil && ok {
			source := pinningSource(bucket, rule.PreferredVersion, cache)
			base.Version = rule.PreferredVersion
			base.Method = types.MethodRulePreferred
			base.Source = source
			base.Score = CandidateScore(tier, true, r.Rules.TrustWeight(name, source))
			return base, nil
		}
	}

	candidates := r.candidates(name, rule, hasRule, bucket, cache)
	if len(candidates) > 0 {
		best := candidates[0]
		base.Version = best.version
		base.Method = types.MethodHeuristic
		base.Source = best.source
		base.Score = best.score
		return base, nil
	}

	for _, req := range bucket {
		if !req.Requirement.HasVersion() {
			continue
		}
		version := fallbackVersion(req.Requirement)
		if hasRule && req.Requirement.ExactVersions() != nil && !withinRule(rule, version, cache) {
			continue
		}
		base.Version = version
		base.Specifier = req.Requirement.SpecifierString()
		base.Method = types.MethodFallback
		base.Source = req.Source
		base.Score = CandidateScore(tier, false, r.Rules.TrustWeight(name, req.Source))
		return base, nil
	}

	if hasExactPins(bucket) {
		return types.ResolvedPackage{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("every requested version of %s violates its version rule", name))
	}

	first := bucket[0]
	base.Version = types.VersionUnconstrained
	base.Method = types.MethodFallbackLatest
	base.Source = first.Source
	base.Score = CandidateScore(tier, false, r.Rules.TrustWeight(name, first.Source))
	return base, nil
}

// candidates scores every exact pin in the bucket plus the rule's
// preferred version, credited to a lower-bound source when there is one. Candidates outside the rule's bounds are dropped.
// The result is ordered best first.
func (r ResolverCore) candidates(name string, rule types.PackageVersionRule, hasRule bool, bucket []types.SourcedRequirement, cache *versionCache) []candidate {
	tier := r.Rules.Tier(name)
	isPreferred := func(version string) bool {
		return hasRule && rule.PreferredVersion != "" && cache.equal(version, rule.PreferredVersion)
	}

	var out []candidate
	order := 0
	for _, req := range bucket {
		for _, version := range req.Requirement.ExactVersions() {
			order++
			if hasRule && !withinRule(rule, version, cache) {
				continue
			}
			out = append(out, candidate{
				version: version,
				source:  req.Source,
				order:   order,
				score:   CandidateScore(tier, isPreferred(version), r.Rules.TrustWeight(name, req.Source)),
			})
		}
	}
	if hasRule && rule.PreferredVersion != "" && withinRule(rule, rule.PreferredVersion, cache) {
		source := r.lowerBoundSource(name, bucket)
		out = append(out, candidate{
			version: rule.PreferredVersion,
			source:  source,
			order:   order + 1,
			score:   CandidateScore(tier, true, r.Rules.TrustWeight(name, source)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if cmp := cache.compare(out[i].version, out[j].version); cmp != 0 {
			return cmp > 0
		}
		return out[i].order < out[j].order
	})
	return out
}

// lowerBoundSource credits the rule's preferred version to the most
// trusted source that asked only for a minimum version. Ties keep the
// earliest source. Without such a source the rule table is credited.
func (r ResolverCore) lowerBoundSource(name string, bucket []types.SourcedRequirement) string {
	source := policies.RuleSourceID
	best := -1
	for _, req := range bucket {
		if !hasLowerBoundOnly(req.Requirement) {
			continue
		}
		if weight := r.Rules.TrustWeight(name, req.Source); weight > best {
			source, best = req.Source, weight
		}
	}
	return source
}

func hasLowerBoundOnly(req types.Requirement) bool {
	if len(req.ExactVersions()) > 0 {
		return false
	}
	for _, spec := range req.Specifiers {
		switch spec.Op {
		case types.ConstraintOpGte, types.ConstraintOpGt, types.ConstraintOpCompat:
			return true
		}
	}
	return false
}

// withinRule checks a version against the rule's min, max and excluded
// list. Versions that do not parse never satisfy a bounded rule.
func withinRule(rule types.PackageVersionRule, version string, cache *versionCache) bool {
	for _, excluded := range rule.ExcludedVersions {
		if version == excluded || cache.equal(version, excluded) {
			return false
		}
	}
	if rule.MinVersion == "" && rule.MaxVersion == "" {
		return true
	}
	if _, err := cache.pepVersion(version); err != nil {
		return false
	}
	if rule.MinVersion != "" && cache.compare(version, rule.MinVersion) < 0 {
		return false
	}
	if rule.MaxVersion != "" && cache.compare(version, rule.MaxVersion) > 0 {
		return false
	}
	return true
}

// pinningSource returns the first source whose pin equals version, or the
// rule table when no source pinned it.
func pinningSource(bucket []types.SourcedRequirement, version string, cache *versionCache) string {
	for _, req := range bucket {
		for _, pin := range req.Requirement.ExactVersions() {
			if cache.equal(pin, version) {
				return req.Source
			}
		}
	}
	return policies.RuleSourceID
}

// fallbackVersion picks the version text a fallback records: the pin when
// there is one, then the lowest version a lower bound admits, then the
// first specifier's version.
func fallbackVersion(req types.Requirement) string {
	if pins := req.ExactVersions(); len(pins) > 0 {
		return pins[0]
	}
	for _, spec := range req.Specifiers {
		switch spec.Op {
		case types.ConstraintOpGte, types.ConstraintOpCompat, types.ConstraintOpGt:
			return spec.Version
		}
	}
	return req.Specifiers[0].Version
}

func hasExactPins(bucket []types.SourcedRequirement) bool {
	for _, req := range bucket {
		if len(req.Requirement.ExactVersions()) > 0 {
			return true
		}
	}
	return false
}

// InstallSpec renders the argument handed to the installer for one plan
// entry.
func InstallSpec(entry types.ResolvedPackage) string {
	if entry.Unconstrained() {
		return entry.Package
	}
	if entry.Method == types.MethodFallback && entry.Specifier != "" {
		return entry.Package + entry.Specifier
	}
	return entry.Package + "==" + entry.Version
}

func sortedKeys(values map[string]struct{}) []string {
	out := make([]string, 0, len(values))
	for key := range values {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
