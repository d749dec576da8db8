package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comfyui-deps/internal/types"
)

func detect(t *testing.T, sources ...[]string) []types.ConflictRecord {
	t.Helper()
	agg := NewAggregator()
	for i, lines := range sources {
		agg.AddSource(t.Context(), string(rune('a'+i)), lines)
	}
	return NewConflictDetector().Detect(t.Context(), agg)
}

func TestDetectExactPinConflict(t *testing.T) {
	records := detect(t, []string{"foo==2.0.0"}, []string{"foo==1.0.0"})
	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, "foo", record.Package)
	assert.Equal(t, types.ConflictKindExactPin, record.Kind)
	if diff := cmp.Diff([]string{"1.0.0", "2.0.0"}, record.ExactVersions); diff != "" {
		t.Fatalf("unexpected versions (-want +got):\n%s", diff)
	}
	require.Len(t, record.Requirements, 2)
	assert.Equal(t, "a", record.Requirements[0].Source)
	assert.Equal(t, "b", record.Requirements[1].Source)
}

func TestDetectRepeatedPinIsNotAConflict(t *testing.T) {
	records := detect(t,
		[]string{"numpy==1.26.4"},
		[]string{"numpy==1.26.4"},
		[]string{"numpy==1.26.4.0", "numpy>=1.25"},
	)
	assert.Empty(t, records)
}

func TestDetectEmptyRange(t *testing.T) {
	tests := []struct {
		name    string
		sources [][]string
	}{
		{name: "disjoint bounds", sources: [][]string{{"foo>=2.0"}, {"foo<1.5"}}},
		{name: "exclusive touch", sources: [][]string{{"foo>1.0"}, {"foo<=1.0"}}},
		{name: "pin outside range", sources: [][]string{{"foo==1.0"}, {"foo>=2"}}},
		{name: "pin excluded", sources: [][]string{{"foo==1.0"}, {"foo!=1.0"}}},
		{name: "pin excluded with trailing zero", sources: [][]string{{"foo==1.0"}, {"foo!=1.0.0"}}},
		{name: "collapsed bounds excluded", sources: [][]string{{"foo>=1.0,<=1.0"}, {"foo!=1.0"}}},
		{name: "compatible release", sources: [][]string{{"foo~=1.4.2"}, {"foo>=1.5"}}},
		{name: "wildcard", sources: [][]string{{"foo==1.4.*"}, {"foo>=1.5"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := detect(t, tt.sources...)
			require.Len(t, records, 1)
			assert.Equal(t, types.ConflictKindEmptyRange, records[0].Kind)
			assert.NotEmpty(t, records[0].Detail)
		})
	}
}

func TestDetectCompatibleRangesAreNotConflicts(t *testing.T) {
	records := detect(t,
		[]string{"foo>=1.0", "bar~=2.1"},
		[]string{"foo<2.0", "bar>=2.3,<3"},
		[]string{"foo!=1.5", "baz"},
	)
	assert.Empty(t, records)
}

func TestDetectSingleRequirementNeverConflicts(t *testing.T) {
	records := detect(t, []string{"foo>=2.0,<1.0"})
	assert.Empty(t, records)
}
