package core

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	"github.com/rs/zerolog/log"

	"comfyui-deps/internal/shared"
	"comfyui-deps/internal/types"
)

type ConfigValidator struct{}

func NewConfigValidator() ConfigValidator {
	return ConfigValidator{}
}

// Validate rejects configs the run cannot act on. Rule overrides are
// checked again when they are merged into the rule table; this pass only
// catches what can be judged without it.
func (v ConfigValidator) Validate(cfg types.Config) error {
	seenIDs := map[string]struct{}{}
	for i, source := range cfg.Sources {
		id := strings.TrimSpace(source.ID)
		if id == "" {
			return invalidConfig(fmt.Sprintf("sources[%d].id must be set", i))
		}
		if id == types.AdditionalSourceID {
			return invalidConfig(fmt.Sprintf("source id %s is reserved", id))
		}
		if _, dup := seenIDs[id]; dup {
			return invalidConfig(fmt.Sprintf("duplicate source id %s", id))
		}
		seenIDs[id] = struct{}{}
		if err := validateSourceURL(source.URL); err != nil {
			return invalidConfig(fmt.Sprintf("source %s: %s", id, err.Error()))
		}
	}

	for _, line := range cfg.AdditionalPackages {
		if IsIgnorableLine(line) {
			continue
		}
		if _, err := ParseRequirement(line); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("additional_packages: %s", shared.ErrorMessage(err))).
				WithCause(err)
		}
	}

	for _, name := range cfg.Excluded {
		if strings.TrimSpace(name) == "" {
			return invalidConfig("excluded entries must not be empty")
		}
	}

	for name, version := range cfg.Forced {
		if shared.NormalizePipName(name) == "" {
			return invalidConfig("forced entries must name a package")
		}
		if _, err := pep440.Parse(strings.TrimSpace(version)); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("forced version for %s is not a valid version: %q", name, version)).
				WithCause(err)
		}
	}

	for i, rule := range cfg.Rules {
		if shared.NormalizePipName(rule.Package) == "" {
			return invalidConfig(fmt.Sprintf("rules[%d].package must be set", i))
		}
		if rule.Tier != "" {
			if _, ok := types.ParsePriorityTier(rule.Tier); !ok {
				return invalidConfig(fmt.Sprintf("rule %s has invalid tier %q", rule.Package, rule.Tier))
			}
		}
		for _, field := range []struct {
			name  string
			value string
		}{
			{"preferred_version", rule.PreferredVersion},
			{"min_version", rule.MinVersion},
			{"max_version", rule.MaxVersion},
		} {
			if field.value == "" {
				continue
			}
			if _, err := pep440.Parse(field.value); err != nil {
				return invalidConfig(fmt.Sprintf("rule %s %s is not a valid version: %q", rule.Package, field.name, field.value))
			}
		}
		if rule.MinVersion != "" && rule.MaxVersion != "" {
			cache := newVersionCache()
			if cache.compare(rule.MinVersion, rule.MaxVersion) > 0 {
				return invalidConfig(fmt.Sprintf("rule %s min_version %s is above max_version %s", rule.Package, rule.MinVersion, rule.MaxVersion))
			}
		}
	}

	for source, weight := range cfg.SourceTrust {
		if weight < 0 {
			return invalidConfig(fmt.Sprintf("source_trust for %s must not be negative", source))
		}
	}
	if cfg.DefaultTrust < 0 {
		return invalidConfig("default_trust must not be negative")
	}
	if cfg.Fetch.Workers < 0 || cfg.Fetch.TimeoutSec < 0 || cfg.Fetch.Retries < 0 || cfg.Fetch.RetryDelayMs < 0 {
		return invalidConfig("fetch options must not be negative")
	}
	if cfg.Install.Retries < 0 || cfg.Install.BackoffSec < 0 {
		return invalidConfig("install options must not be negative")
	}
	if len(cfg.Sources) == 0 && len(cfg.AdditionalPackages) == 0 {
		log.Warn().Msg("config names no sources and no additional packages")
	}
	return nil
}

func validateSourceURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("url must be set")
	}
	if !strings.Contains(raw, "://") {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q", raw)
	}
	switch parsed.Scheme {
	case "http", "https":
		if parsed.Host == "" {
			return fmt.Errorf("url %q has no host", raw)
		}
	case "file":
	default:
		return fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}
	return nil
}

func invalidConfig(msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(msg)
}
