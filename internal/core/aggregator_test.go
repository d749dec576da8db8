package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorKeepsDuplicatesInSourceOrder(t *testing.T) {
	agg := NewAggregator()
	ctx := t.Context()

	added := agg.AddSource(ctx, "comfyanonymous/ComfyUI", []string{
		"# core requirements",
		"torch",
		"numpy>=1.25.0",
		"",
		"--extra-index-url https://download.pytorch.org/whl/cu121",
	})
	require.Equal(t, 2, added)
	agg.AddSource(ctx, "kijai/ComfyUI-KJNodes", []string{"numpy==1.26.4", "NumPy>=1.25.0"})

	if diff := cmp.Diff([]string{"torch", "numpy"}, agg.Packages()); diff != "" {
		t.Fatalf("unexpected package order (-want +got):\n%s", diff)
	}
	bucket := agg.Bucket("numpy")
	require.Len(t, bucket, 3)
	assert.Equal(t, "comfyanonymous/ComfyUI", bucket[0].Source)
	assert.Equal(t, "kijai/ComfyUI-KJNodes", bucket[1].Source)
	assert.Equal(t, "numpy==1.26.4", bucket[1].Raw)
	assert.Equal(t, "NumPy>=1.25.0", bucket[2].Raw)
}

func TestAggregatorRecordsParseFailures(t *testing.T) {
	agg := NewAggregator()
	added := agg.AddSource(t.Context(), "broken/node", []string{"good-pkg", "bad pkg here", "foo=="})
	assert.Equal(t, 1, added)

	failures := agg.ParseFailures()
	require.Len(t, failures, 2)
	assert.Equal(t, "broken/node", failures[0].Source)
	assert.Equal(t, "bad pkg here", failures[0].Line)
	assert.Contains(t, failures[1].Reason, "without version")
}

func TestAggregatorTracksSourcesAndDegraded(t *testing.T) {
	agg := NewAggregator()
	agg.AddSource(t.Context(), "a", []string{"x"})
	agg.MarkDegraded("b", "timeout")
	agg.AddSource(t.Context(), "a", []string{"y"})

	if diff := cmp.Diff([]string{"a", "b"}, agg.Sources()); diff != "" {
		t.Fatalf("unexpected sources (-want +got):\n%s", diff)
	}
	degraded := agg.Degraded()
	require.Len(t, degraded, 1)
	assert.Equal(t, "timeout", degraded[0].Reason)
}

func TestAggregatorPackageSources(t *testing.T) {
	agg := NewAggregator()
	agg.AddSource(t.Context(), "a", []string{"numpy", "torch"})
	agg.AddSource(t.Context(), "b", []string{"numpy==1.26.4"})

	want := map[string][]string{
		"numpy": {"a", "b"},
		"torch": {"a"},
	}
	if diff := cmp.Diff(want, agg.PackageSources()); diff != "" {
		t.Fatalf("unexpected package sources (-want +got):\n%s", diff)
	}
}

func TestAggregatorBucketIsACopy(t *testing.T) {
	agg := NewAggregator()
	agg.AddSource(t.Context(), "a", []string{"numpy"})
	bucket := agg.Bucket("numpy")
	bucket[0].Source = "mutated"
	assert.Equal(t, "a", agg.Bucket("numpy")[0].Source)
}
