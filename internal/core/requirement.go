package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"comfyui-deps/internal/shared"
	"comfyui-deps/internal/types"
)

// opTokens is the ordered list of specifier operators tried during
// parsing. Longer tokens must precede shorter ones to avoid false matches
// (e.g. "===" before "==", ">=" before ">").
var opTokens = []types.ConstraintOp{
	types.ConstraintOpArbitrary,
	types.ConstraintOpCompat,
	types.ConstraintOpEq,
	types.ConstraintOpNe,
	types.ConstraintOpGte,
	types.ConstraintOpLte,
	types.ConstraintOpGt,
	types.ConstraintOpLt,
}

var (
	inlineComment = regexp.MustCompile(`\s+#.*$`)
	validName     = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)
)

// IsIgnorableLine reports whether a requirements line carries no
// requirement: blank lines, comments and pip option lines such as
// "-r other.txt" or "--index-url ...".
func IsIgnorableLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "-")
}

// ParseRequirement parses one PEP 508 style requirement line such as
// "opencv-python[contrib]>=4.7,<5; python_version >= '3.9'". The package
// name is normalized; specifiers keep their original order.
func ParseRequirement(line string) (types.Requirement, error) {
	text := strings.TrimSpace(inlineComment.ReplaceAllString(strings.TrimSpace(line), ""))
	if IsIgnorableLine(text) {
		return types.Requirement{}, invalidRequirement(line, "not a requirement")
	}
	body, marker := text, ""
	if idx := strings.Index(text, ";"); idx >= 0 {
		body = strings.TrimSpace(text[:idx])
		marker = strings.TrimSpace(text[idx+1:])
	}

	nameEnd := strings.IndexFunc(body, func(r rune) bool {
		return !isNameRune(r)
	})
	if nameEnd < 0 {
		nameEnd = len(body)
	}
	rawName := body[:nameEnd]
	if !validName.MatchString(rawName) {
		return types.Requirement{}, invalidRequirement(line, "invalid package name")
	}
	req := types.Requirement{
		Name:   shared.NormalizePipName(rawName),
		Marker: marker,
	}

	rest := strings.TrimSpace(body[nameEnd:])
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return types.Requirement{}, invalidRequirement(line, "unterminated extras")
		}
		for _, extra := range strings.Split(rest[1:end], ",") {
			extra = strings.TrimSpace(extra)
			if extra == "" {
				continue
			}
			if !validName.MatchString(extra) {
				return types.Requirement{}, invalidRequirement(line, "invalid extra")
			}
			req.Extras = append(req.Extras, shared.NormalizePipName(extra))
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	if strings.HasPrefix(rest, "@") {
		if strings.TrimSpace(rest[1:]) == "" {
			return types.Requirement{}, invalidRequirement(line, "direct reference without url")
		}
		return req, nil
	}
	if strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
		rest = strings.TrimSpace(rest[1 : len(rest)-1])
	}
	if rest == "" {
		return req, nil
	}
	specs, err := parseSpecifiers(rest)
	if err != nil {
		return types.Requirement{}, invalidRequirement(line, err.Error())
	}
	req.Specifiers = specs
	return req, nil
}

// parseSpecifiers splits a comma separated specifier set.
func parseSpecifiers(raw string) ([]types.Specifier, error) {
	var out []types.Specifier
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty specifier")
		}
		spec, err := parseSpecifier(part)
		if err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, nil
}

func parseSpecifier(raw string) (types.Specifier, error) {
	for _, op := range opTokens {
		if !strings.HasPrefix(raw, string(op)) {
			continue
		}
		version := strings.TrimSpace(raw[len(op):])
		if version == "" {
			return types.Specifier{}, fmt.Errorf("operator %s without version", op)
		}
		if strings.ContainsAny(version, " \t") {
			return types.Specifier{}, fmt.Errorf("invalid version %q", version)
		}
		if op == types.ConstraintOpArbitrary {
			return types.Specifier{Op: op, Version: version}, nil
		}
		check := version
		if strings.HasSuffix(version, ".*") {
			if op != types.ConstraintOpEq && op != types.ConstraintOpNe {
				return types.Specifier{}, fmt.Errorf("wildcard not allowed with %s", op)
			}
			check = strings.TrimSuffix(version, ".*")
		}
		if _, err := pep440.Parse(check); err != nil {
			return types.Specifier{}, fmt.Errorf("invalid version %q", version)
		}
		return types.Specifier{Op: op, Version: version}, nil
	}
	return types.Specifier{}, fmt.Errorf("missing operator in %q", raw)
}

func isNameRune(r rune) bool {
	return r == '.' || r == '_' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func invalidRequirement(line string, reason string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid requirement %q: %s", strings.TrimSpace(line), reason))
}
