package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"comfyui-deps/internal/core"
	"comfyui-deps/internal/ports"
	"comfyui-deps/internal/types"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

const (
	comfyURL   = "https://github.com/comfyanonymous/ComfyUI/raw/master/requirements.txt"
	kjNodesURL = "https://github.com/kijai/ComfyUI-KJNodes/raw/main/requirements.txt"
	impactURL  = "https://github.com/ltdrdata/ComfyUI-Impact-Pack/raw/Main/requirements.txt"
	offlineURL = "https://example.invalid/offline/requirements.txt"
)

type fakeFetcher struct {
	mu       sync.Mutex
	lines    map[string][]string
	requests []ports.SourceFetchRequest
}

func (f *fakeFetcher) FetchAll(_ context.Context, request ports.SourceFetchRequest) []ports.SourceFetchResult {
	f.mu.Lock()
	f.requests = append(f.requests, request)
	f.mu.Unlock()
	results := make([]ports.SourceFetchResult, 0, len(request.Sources))
	for _, source := range request.Sources {
		lines, ok := f.lines[source.URL]
		if !ok {
			results = append(results, ports.SourceFetchResult{Source: source, Attempts: 3, Err: errors.New("connection refused")})
			continue
		}
		results = append(results, ports.SourceFetchResult{Source: source, Lines: lines, Attempts: 1})
	}
	return results
}

func (f *fakeFetcher) lastRequest(t *testing.T) ports.SourceFetchRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

type fakeInstaller struct {
	fail     map[string]bool
	requests []ports.InstallRequest
	installs []string
}

func (f *fakeInstaller) Install(_ context.Context, entry types.ResolvedPackage, request ports.InstallRequest) types.InstallResult {
	f.requests = append(f.requests, request)
	f.installs = append(f.installs, entry.Package)
	spec := core.InstallSpec(entry)
	if f.fail[entry.Package] {
		return types.InstallResult{Package: entry.Package, Spec: spec, Attempts: 3, Error: "no matching distribution"}
	}
	return types.InstallResult{Package: entry.Package, Spec: spec, Success: true, Attempts: 1}
}

type fakeIndex struct {
	checks []types.IndexCheck
	seen   []types.ResolvedPackage
}

func (f *fakeIndex) CheckPlan(_ context.Context, entries []types.ResolvedPackage, _ ports.IndexCheckRequest) []types.IndexCheck {
	f.seen = entries
	return f.checks
}

type fakeWorkspace struct {
	sources []types.SourceSpec
	err     error
}

func (f fakeWorkspace) FindRequirementSources(string) ([]types.SourceSpec, error) {
	return f.sources, f.err
}

func sampleFetcher() *fakeFetcher {
	return &fakeFetcher{lines: map[string][]string{
		comfyURL:   {"torch", "torchvision", "numpy>=1.25.0", "einops", "safetensors>=0.4.2", "Pillow", "scipy"},
		kjNodesURL: {"pillow>=10.3.0", "scipy", "opencv-python", "numpy<2"},
		impactURL:  {"scipy>=1.11.4", "insightface==0.7.3", "dill"},
	}}
}

func newTestService(fetcher *fakeFetcher) Service {
	service := NewService()
	service.Fetcher = fetcher
	service.Installer = &fakeInstaller{}
	service.Index = &fakeIndex{}
	service.Workspace = fakeWorkspace{}
	service.Clock = func() time.Time { return fixedNow }
	return service
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comfyui-deps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func planByName(plan types.InstallationPlan) map[string]types.ResolvedPackage {
	out := map[string]types.ResolvedPackage{}
	for _, entry := range plan.Entries {
		out[entry.Package] = entry
	}
	return out
}
