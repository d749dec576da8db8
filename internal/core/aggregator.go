package core

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"comfyui-deps/internal/shared"
	"comfyui-deps/internal/types"
)

// Aggregator collects requirements from many sources into per-package
// buckets. Buckets keep every entry, duplicates included, in the order
// sources were added; callers must feed sources in a fixed order for
// reproducible tie-breaks downstream.
type Aggregator struct {
	buckets  map[string][]types.SourcedRequirement
	order    []string
	sources  []string
	seen     map[string]struct{}
	degraded []types.DegradedSource
	failures []types.ParseFailure
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		buckets: map[string][]types.SourcedRequirement{},
		seen:    map[string]struct{}{},
	}
}

// AddSource parses every line and appends the parseable ones to their
// package bucket. Unparseable lines are logged and skipped. It returns
// the number of requirements added.
func (a *Aggregator) AddSource(ctx context.Context, sourceID string, lines []string) int {
	sourceID = strings.TrimSpace(sourceID)
	a.registerSource(sourceID)
	added := 0
	for _, line := range lines {
		if IsIgnorableLine(line) {
			continue
		}
		req, err := ParseRequirement(line)
		if err != nil {
			log.Ctx(ctx).Warn().Str("source", sourceID).Str("line", strings.TrimSpace(line)).Err(err).Msg("skipping requirement")
			a.failures = append(a.failures, types.ParseFailure{
				Source: sourceID,
				Line:   strings.TrimSpace(line),
				Reason: shared.ErrorMessage(err),
			})
			continue
		}
		if _, ok := a.buckets[req.Name]; !ok {
			a.order = append(a.order, req.Name)
		}
		a.buckets[req.Name] = append(a.buckets[req.Name], types.SourcedRequirement{
			Source:      sourceID,
			Requirement: req,
			Raw:         strings.TrimSpace(line),
		})
		added++
	}
	log.Ctx(ctx).Debug().Str("source", sourceID).Int("requirements", added).Msg("source aggregated")
	return added
}

// MarkDegraded records a source that contributed nothing because it could
// not be fetched. Resolution proceeds without it.
func (a *Aggregator) MarkDegraded(sourceID string, reason string) {
	sourceID = strings.TrimSpace(sourceID)
	a.registerSource(sourceID)
	a.degraded = append(a.degraded, types.DegradedSource{Source: sourceID, Reason: reason})
}

func (a *Aggregator) registerSource(sourceID string) {
	if _, ok := a.seen[sourceID]; ok {
		return
	}
	a.seen[sourceID] = struct{}{}
	a.sources = append(a.sources, sourceID)
}

// Packages returns package names in first-seen order.
func (a *Aggregator) Packages() []string {
	return append([]string(nil), a.order...)
}

// Bucket returns the requirements recorded for a normalized package name.
func (a *Aggregator) Bucket(name string) []types.SourcedRequirement {
	return append([]types.SourcedRequirement(nil), a.buckets[name]...)
}

// Sources returns every distinct source identifier in the order added.
func (a *Aggregator) Sources() []string {
	return append([]string(nil), a.sources...)
}

func (a *Aggregator) Degraded() []types.DegradedSource {
	return append([]types.DegradedSource(nil), a.degraded...)
}

func (a *Aggregator) ParseFailures() []types.ParseFailure {
	return append([]types.ParseFailure(nil), a.failures...)
}

// PackageSources maps each package to the sources mentioning it.
func (a *Aggregator) PackageSources() map[string][]string {
	out := make(map[string][]string, len(a.order))
	for _, name := range a.order {
		for _, req := range a.buckets[name] {
			out[name] = append(out[name], req.Source)
		}
	}
	return out
}
