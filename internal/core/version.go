package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"comfyui-deps/internal/types"
)

// versionCache memoizes parsed version objects to avoid repeated parsing
// during constraint evaluation and sorting.
type versionCache struct {
	pep  map[string]pep440.Version
	spec map[string]pep440.Specifiers
	deb  map[string]debversion.Version
}

func newVersionCache() *versionCache {
	return &versionCache{
		pep:  map[string]pep440.Version{},
		spec: map[string]pep440.Specifiers{},
		deb:  map[string]debversion.Version{},
	}
}

// pepVersion returns a parsed PEP 440 version, caching the result.
func (c *versionCache) pepVersion(value string) (pep440.Version, error) {
	if parsed, ok := c.pep[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, err
	}
	c.pep[value] = parsed
	return parsed, nil
}

// pepSpec returns parsed PEP 440 specifiers, caching the result.
func (c *versionCache) pepSpec(value string) (pep440.Specifiers, error) {
	if parsed, ok := c.spec[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.NewSpecifiers(value)
	if err != nil {
		return pep440.Specifiers{}, err
	}
	c.spec[value] = parsed
	return parsed, nil
}

// debVersion returns a parsed Debian version, caching the result.
func (c *versionCache) debVersion(value string) (debversion.Version, error) {
	if parsed, ok := c.deb[value]; ok {
		return parsed, nil
	}
	parsed, err := debversion.NewVersion(value)
	if err != nil {
		return debversion.Version{}, err
	}
	c.deb[value] = parsed
	return parsed, nil
}

// compare returns -1, 0, or 1. PEP 440 ordering applies when both sides
// parse; legacy strings fall back to Debian ordering and finally to a
// plain string comparison so the result is always total.
func (c *versionCache) compare(a string, b string) int {
	if v1, err := c.pepVersion(a); err == nil {
		if v2, err := c.pepVersion(b); err == nil {
			return v1.Compare(v2)
		}
	}
	if v1, err := c.debVersion(a); err == nil {
		if v2, err := c.debVersion(b); err == nil {
			return v1.Compare(v2)
		}
	}
	return strings.Compare(a, b)
}

func (c *versionCache) equal(a string, b string) bool {
	return c.compare(a, b) == 0
}

// satisfies checks version against every specifier. Arbitrary equality
// (===) is a literal string match as PEP 440 defines it.
func (c *versionCache) satisfies(version string, specs []types.Specifier) (bool, error) {
	if len(specs) == 0 {
		return true, nil
	}
	parsed, err := c.pepVersion(version)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version: %s", version)).
			WithCause(err)
	}
	for _, spec := range specs {
		if spec.Op == types.ConstraintOpArbitrary {
			if strings.TrimSpace(spec.Version) != version {
				return false, nil
			}
			continue
		}
		set, err := c.pepSpec(toPep440Spec(spec))
		if err != nil {
			return false, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid specifier: %s", spec.String())).
				WithCause(err)
		}
		if !set.Check(parsed) {
			return false, nil
		}
	}
	return true, nil
}

// satisfiesRequirements checks version against every requirement in a
// package bucket.
func (c *versionCache) satisfiesRequirements(version string, reqs []types.SourcedRequirement) (bool, error) {
	for _, req := range reqs {
		ok, err := c.satisfies(version, req.Requirement.Specifiers)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// toPep440Spec renders a specifier in the spaced form the PEP 440
// parser expects (e.g. ">= 1.0", "~= 2.3").
func toPep440Spec(spec types.Specifier) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", spec.Op, spec.Version))
}

var releasePrefix = regexp.MustCompile(`^(?:\d+!)?(\d+(?:\.\d+)*)`)

// releaseSegments extracts the numeric release components of a version,
// ignoring epoch and any pre, post, dev or local suffix.
func releaseSegments(version string) []int {
	match := releasePrefix.FindStringSubmatch(strings.TrimSpace(version))
	if match == nil {
		return nil
	}
	parts := strings.Split(match[1], ".")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil
		}
		out = append(out, value)
	}
	return out
}

// bumpPrefix returns the first release after every version sharing the
// given prefix: "1.4" -> "1.5", "2" -> "3".
func bumpPrefix(segments []int) string {
	if len(segments) == 0 {
		return ""
	}
	bumped := append([]int(nil), segments...)
	bumped[len(bumped)-1]++
	parts := make([]string, len(bumped))
	for i, value := range bumped {
		parts[i] = strconv.Itoa(value)
	}
	return strings.Join(parts, ".")
}
