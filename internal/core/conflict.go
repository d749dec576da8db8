package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"comfyui-deps/internal/types"
)

// ConflictDetector flags packages whose aggregated specifiers cannot all
// hold at once. It is diagnostic only and never changes the buckets.
type ConflictDetector struct{}

func NewConflictDetector() ConflictDetector {
	return ConflictDetector{}
}

// Detect returns at most one record per package, in aggregation order.
// A package is a conflict when it carries two or more distinct exact
// pins, or when its combined range is provably empty.
func (d ConflictDetector) Detect(ctx context.Context, agg *Aggregator) []types.ConflictRecord {
	cache := newVersionCache()
	var records []types.ConflictRecord
	for _, name := range agg.Packages() {
		bucket := agg.Bucket(name)
		if len(bucket) <= 1 {
			continue
		}
		record, ok := d.detectPackage(name, bucket, cache)
		if !ok {
			continue
		}
		log.Ctx(ctx).Debug().
			Str("package", name).
			Str("kind", string(record.Kind)).
			Strs("versions", record.ExactVersions).
			Msg("conflict detected")
		records = append(records, record)
	}
	return records
}

func (d ConflictDetector) detectPackage(name string, bucket []types.SourcedRequirement, cache *versionCache) (types.ConflictRecord, bool) {
	pins := distinctPins(bucket, cache)
	if len(pins) > 1 {
		return types.ConflictRecord{
			Package:       name,
			Kind:          types.ConflictKindExactPin,
			ExactVersions: pins,
			Requirements:  bucket,
			Detail:        fmt.Sprintf("%d distinct exact versions requested: %s", len(pins), strings.Join(pins, ", ")),
		}, true
	}
	span := newVersionRange(cache)
	for _, req := range bucket {
		for _, spec := range req.Requirement.Specifiers {
			span.apply(spec)
		}
	}
	if empty, detail := span.empty(); empty {
		return types.ConflictRecord{
			Package:       name,
			Kind:          types.ConflictKindEmptyRange,
			ExactVersions: pins,
			Requirements:  bucket,
			Detail:        detail,
		}, true
	}
	return types.ConflictRecord{}, false
}

// distinctPins collects exact versions across a bucket, treating PEP 440
// equal spellings ("1.0" and "1.0.0") as one. The first spelling seen is
// kept and the result is sorted ascending.
func distinctPins(bucket []types.SourcedRequirement, cache *versionCache) []string {
	var pins []string
	for _, req := range bucket {
		for _, version := range req.Requirement.ExactVersions() {
			duplicate := false
			for _, existing := range pins {
				if cache.equal(existing, version) {
					duplicate = true
					break
				}
			}
			if !duplicate {
				pins = append(pins, version)
			}
		}
	}
	sort.SliceStable(pins, func(i, j int) bool {
		return cache.compare(pins[i], pins[j]) < 0
	})
	return pins
}
