package integration

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comfyui-deps/internal/adapters"
	"comfyui-deps/internal/app"
	"comfyui-deps/internal/types"
	"comfyui-deps/tests/testutil"
)

var update = flag.Bool("update", false, "rewrite golden files from the current output")

// goldenOutputs are compared byte for byte. resolution.yaml is checked by
// reading it back instead, since its layout follows the yaml encoder.
var goldenOutputs = []string{
	adapters.LockFileName,
	adapters.ExcludedFileName,
	adapters.ScriptFileName,
}

func resolveFixtures(t *testing.T, outDir string) app.ResolveResult {
	t.Helper()
	result, err := testutil.NewService().Resolve(t.Context(), app.ResolveRequest{
		Options:   app.SourceOptions{ConfigPath: testutil.FixtureConfig(t)},
		OutputDir: outDir,
	})
	require.NoError(t, err)
	return result
}

// TestGoldenResolve resolves the fixture sources and compares the outputs
// against the files in testdata/golden.
//
// To update golden files after an intentional change, run
// go test ./tests/integration -run TestGoldenResolve -update
func TestGoldenResolve(t *testing.T) {
	root := testutil.RepoRoot(t)
	goldenDir := filepath.Join(root, "tests", "integration", "testdata", "golden")
	outDir := t.TempDir()
	resolveFixtures(t, outDir)

	for _, name := range goldenOutputs {
		t.Run(name, func(t *testing.T) {
			actual, err := os.ReadFile(filepath.Join(outDir, name))
			require.NoError(t, err)

			goldenPath := filepath.Join(goldenDir, name)
			if *update {
				require.NoError(t, os.MkdirAll(goldenDir, 0o755))
				require.NoError(t, os.WriteFile(goldenPath, actual, 0o644))
				t.Logf("golden file written: %s", goldenPath)
				return
			}

			expected, err := os.ReadFile(goldenPath)
			require.NoError(t, err, "missing golden file; run with -update to create it")
			assert.Equal(t, string(expected), string(actual),
				"golden mismatch for %s -- re-run with -update after an intentional change", name)
		})
	}
}

func TestGoldenResolveReportReadsBack(t *testing.T) {
	outDir := t.TempDir()
	result := resolveFixtures(t, outDir)

	report, err := adapters.NewOutputReaderAdapter().ReadResolutionReport(filepath.Join(outDir, adapters.ReportFileName))
	require.NoError(t, err)
	if diff := cmp.Diff(result.Report.Summary, report.Summary); diff != "" {
		t.Fatalf("summary changed on read back (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(result.Report.Plan, report.Plan, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("plan changed on read back (-want +got):\n%s", diff)
	}
	assert.True(t, report.GeneratedAt.Equal(testutil.FixedTime))
}

func TestGoldenResolveIsStable(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	resolveFixtures(t, first)
	resolveFixtures(t, second)
	for _, name := range append(goldenOutputs, adapters.ReportFileName) {
		a, err := os.ReadFile(filepath.Join(first, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(second, name))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), "%s differs between runs", name)
	}
}

// TestGoldenResolveStructure checks properties of the fixture resolution
// that hold independent of exact output formatting.
func TestGoldenResolveStructure(t *testing.T) {
	result := resolveFixtures(t, t.TempDir())
	report := result.Report

	byName := map[string]types.ResolvedPackage{}
	for _, entry := range report.Plan.Entries {
		byName[entry.Package] = entry
	}

	t.Run("sources", func(t *testing.T) {
		// Four fixture files plus the built-in additional packages.
		assert.Equal(t, 5, report.Summary.SourcesAnalyzed)
		assert.Zero(t, report.Summary.SourcesDegraded)
		assert.Equal(t, 1, report.Summary.ParseFailures)
	})

	t.Run("rule pins win over legacy pins", func(t *testing.T) {
		assert.Equal(t, "2.6.0", byName["torch"].Version)
		assert.Equal(t, "1.26.4", byName["numpy"].Version)
		assert.Equal(t, "comfyanonymous/ComfyUI", byName["numpy"].Source)
		assert.Equal(t, "4.8.0.76", byName["opencv-python"].Version)
		assert.Equal(t, "comfyui-frontend-package", byName["comfyui-frontend-package"].Package)
	})

	t.Run("excluded packages stay out of the plan", func(t *testing.T) {
		assert.NotContains(t, byName, "insightface")
		assert.NotContains(t, byName, "bizyengine")
		var excluded []string
		for _, entry := range report.Plan.Excluded {
			excluded = append(excluded, entry.Package)
		}
		assert.Contains(t, excluded, "insightface")
	})

	t.Run("config rules and tiers", func(t *testing.T) {
		assert.Equal(t, types.TierHigh, byName["onnxruntime-gpu"].Tier)
		assert.Equal(t, types.TierCritical, report.Plan.Entries[0].Tier)
		for i := 1; i < len(report.Plan.Entries); i++ {
			assert.LessOrEqual(t, report.Plan.Entries[i-1].Tier.Rank(), report.Plan.Entries[i].Tier.Rank())
		}
	})

	t.Run("conflicts are reported", func(t *testing.T) {
		var conflicted []string
		for _, conflict := range report.Conflicts {
			conflicted = append(conflicted, conflict.Package)
		}
		assert.Contains(t, conflicted, "numpy")
		assert.Contains(t, conflicted, "opencv-python")
	})
}
