package core

import (
	"fmt"
	"strings"

	"comfyui-deps/internal/types"
)

// bound is one side of a version interval.
type bound struct {
	version   string
	inclusive bool
	set       bool
}

// versionRange folds specifiers into a single interval plus a set of
// excluded points. It is deliberately coarse: it keeps one lower and one
// upper bound and ignores pre-release and local version subtleties, so an
// empty result is reliable but a non-empty one is not a guarantee that an
// installable version exists.
type versionRange struct {
	cache    *versionCache
	lower    bound
	upper    bound
	excluded []string
}

func newVersionRange(cache *versionCache) *versionRange {
	return &versionRange{cache: cache}
}

// apply narrows the range by one specifier. Specifiers whose versions do
// not parse as PEP 440 are skipped.
func (r *versionRange) apply(spec types.Specifier) {
	version := spec.Version
	switch spec.Op {
	case types.ConstraintOpEq, types.ConstraintOpArbitrary:
		if !spec.IsPin() {
			segments := releaseSegments(version)
			if len(segments) == 0 {
				return
			}
			r.raise(bound{version: joinSegments(segments), inclusive: true, set: true})
			r.lowerTo(bound{version: bumpPrefix(segments), inclusive: false, set: true})
			return
		}
		if !r.parses(version) {
			return
		}
		r.raise(bound{version: version, inclusive: true, set: true})
		r.lowerTo(bound{version: version, inclusive: true, set: true})
	case types.ConstraintOpGte, types.ConstraintOpGt:
		if !r.parses(version) {
			return
		}
		r.raise(bound{version: version, inclusive: spec.Op == types.ConstraintOpGte, set: true})
	case types.ConstraintOpLte, types.ConstraintOpLt:
		if !r.parses(version) {
			return
		}
		r.lowerTo(bound{version: version, inclusive: spec.Op == types.ConstraintOpLte, set: true})
	case types.ConstraintOpCompat:
		segments := releaseSegments(version)
		if len(segments) < 2 || !r.parses(version) {
			return
		}
		r.raise(bound{version: version, inclusive: true, set: true})
		r.lowerTo(bound{version: bumpPrefix(segments[:len(segments)-1]), inclusive: false, set: true})
	case types.ConstraintOpNe:
		if !strings.HasSuffix(version, ".*") && r.parses(version) {
			r.excluded = append(r.excluded, version)
		}
	}
}

func (r *versionRange) parses(version string) bool {
	_, err := r.cache.pepVersion(version)
	return err == nil
}

func (r *versionRange) raise(candidate bound) {
	if !r.lower.set {
		r.lower = candidate
		return
	}
	cmp := r.cache.compare(candidate.version, r.lower.version)
	if cmp > 0 || (cmp == 0 && !candidate.inclusive) {
		r.lower = candidate
	}
}

func (r *versionRange) lowerTo(candidate bound) {
	if !r.upper.set {
		r.upper = candidate
		return
	}
	cmp := r.cache.compare(candidate.version, r.upper.version)
	if cmp < 0 || (cmp == 0 && !candidate.inclusive) {
		r.upper = candidate
	}
}

// empty reports whether no version can satisfy the folded range, with a
// human readable reason when it cannot.
func (r *versionRange) empty() (bool, string) {
	if !r.lower.set || !r.upper.set {
		return false, ""
	}
	cmp := r.cache.compare(r.lower.version, r.upper.version)
	if cmp > 0 {
		return true, fmt.Sprintf("lower bound %s is above upper bound %s", r.lower.describe(">"), r.upper.describe("<"))
	}
	if cmp < 0 {
		return false, ""
	}
	if !r.lower.inclusive || !r.upper.inclusive {
		return true, fmt.Sprintf("bounds %s and %s exclude every version", r.lower.describe(">"), r.upper.describe("<"))
	}
	for _, excluded := range r.excluded {
		if r.cache.equal(excluded, r.lower.version) {
			return true, fmt.Sprintf("only admissible version %s is excluded", r.lower.version)
		}
	}
	return false, ""
}

func (b bound) describe(op string) string {
	if b.inclusive {
		return op + "=" + b.version
	}
	return op + b.version
}

func joinSegments(segments []int) string {
	out := ""
	for i, value := range segments {
		if i > 0 {
			out += "."
		}
		out += fmt.Sprint(value)
	}
	return out
}
