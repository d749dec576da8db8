// Package testutil provides shared test helpers used across integration,
// e2e, and unit test packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"comfyui-deps/internal/app"
)

// FixedTime is the clock used by tests that compare generated reports.
var FixedTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// FixtureConfig returns the path of the fixture config that lists the
// local requirement files under fixtures/requirements.
func FixtureConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(RepoRoot(t), "fixtures", "comfyui-deps.yaml")
}

// NewService returns the production service with a fixed clock.
func NewService() app.Service {
	service := app.NewService()
	service.Clock = func() time.Time { return FixedTime }
	return service
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
