package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comfyui-deps/internal/types"
)

func TestReadLockFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewOutputFileAdapter(dir).WriteLockFile(samplePlan()))

	entries, err := NewOutputReaderAdapter().ReadLockFile(filepath.Join(dir, LockFileName))
	require.NoError(t, err)
	want := []types.LockEntry{
		{Tier: types.TierCritical, Spec: "torch==2.6.0"},
		{Tier: types.TierCritical, Spec: "xformers==0.0.29.post3"},
		{Tier: types.TierHigh, Spec: "numpy==1.26.4"},
		{Tier: types.TierFlexible, Spec: "scipy>=1.11.4"},
		{Tier: types.TierFlexible, Spec: "einops"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("unexpected lock entries (-want +got):\n%s", diff)
	}
}

func TestReadLockFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := NewOutputReaderAdapter().ReadLockFile(filepath.Join(dir, "missing.txt"))
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))

	path := filepath.Join(dir, LockFileName)
	require.NoError(t, os.WriteFile(path, []byte("# CRITICAL\ntorch == 2.6.0\n"), 0o644))
	_, err = NewOutputReaderAdapter().ReadLockFile(path)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestReadResolutionReportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	report := types.ResolutionReport{
		Summary: types.ReportSummary{TotalPackages: 5, Resolved: 5, Conflicts: 1, SourcesAnalyzed: 3, SourcesDegraded: 1},
		Plan:    samplePlan(),
		DegradedSources: []types.DegradedSource{
			{Source: "offline/node", Reason: "timeout"},
		},
		Recommendations: []string{"1 sources could not be fetched; the plan may be incomplete"},
	}
	require.NoError(t, NewOutputFileAdapter(dir).WriteResolutionReport(report))

	got, err := NewOutputReaderAdapter().ReadResolutionReport(filepath.Join(dir, ReportFileName))
	require.NoError(t, err)
	if diff := cmp.Diff(report, got); diff != "" {
		t.Fatalf("unexpected report (-want +got):\n%s", diff)
	}
}

func TestReadResolutionReportErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := NewOutputReaderAdapter().ReadResolutionReport(filepath.Join(dir, ReportFileName))
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))

	path := filepath.Join(dir, ReportFileName)
	require.NoError(t, os.WriteFile(path, []byte("summary: [unterminated\n"), 0o644))
	_, err = NewOutputReaderAdapter().ReadResolutionReport(path)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
