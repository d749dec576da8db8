package adapters

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comfyui-deps/internal/ports"
	"comfyui-deps/internal/types"
)

func TestParsePipVersionsFromSimple(t *testing.T) {
	content := `<html><body>
<a href="https://files.example/numpy-1.26.4-cp311-cp311-manylinux_2_17_x86_64.whl#sha256=abc">numpy-1.26.4-cp311-cp311-manylinux_2_17_x86_64.whl</a>
<a href="../../packages/numpy-1.25.0.tar.gz">numpy-1.25.0.tar.gz</a>
<a href="/whl/cu121/torch-2.6.0%2Bcu121-cp311-cp311-linux_x86_64.whl">torch</a>
<a href="numpy-1.26.4-cp312-cp312-win_amd64.whl">dup</a>
<a href="README.md">readme</a>
</body></html>`
	got := sortPep440Versions(parsePipVersionsFromSimple(content))
	if diff := cmp.Diff([]string{"1.25.0", "1.26.4", "2.6.0+cu121"}, got); diff != "" {
		t.Fatalf("unexpected versions (-want +got):\n%s", diff)
	}
}

func TestVersionPublished(t *testing.T) {
	published := []string{"2.5.1+cu121", "2.6.0+cu121", "0.0.29.post3"}
	assert.True(t, versionPublished("2.6.0", published))
	assert.True(t, versionPublished("2.6.0+cu121", published))
	assert.False(t, versionPublished("2.6.0+cu118", published))
	assert.False(t, versionPublished("2.7.0", published))
}

func TestNormalizePipSimpleIndex(t *testing.T) {
	assert.Equal(t, "https://pypi.org/simple/", normalizePipSimpleIndex("https://pypi.org/simple"))
	assert.Equal(t, "https://pypi.org/simple/", normalizePipSimpleIndex("https://pypi.org/"))
	assert.Equal(t, "https://download.pytorch.org/whl/cu121/", normalizePipSimpleIndex("https://download.pytorch.org/whl/cu121"))
}

func TestCheckPlanAgainstIndexes(t *testing.T) {
	torchIndex := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/whl/torch/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<a href="torch-2.6.0%2Bcu121-cp311-cp311-linux_x86_64.whl">t</a>`)
	}))
	defer torchIndex.Close()

	pypi := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/simple/numpy/":
			fmt.Fprint(w, `<a href="numpy-1.26.3.tar.gz">a</a><a href="numpy-1.26.4.tar.gz">b</a>`)
		case "/simple/pillow/":
			fmt.Fprint(w, `<a href="pillow-10.4.0.tar.gz">a</a><a href="pillow-11.0.0.tar.gz">b</a>`)
		case "/simple/broken/":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	defer pypi.Close()

	entries := []types.ResolvedPackage{
		{Package: "torch", Version: "2.6.0", Method: types.MethodRulePreferred, IndexURL: torchIndex.URL + "/whl", ExtraIndexURLs: []string{pypi.URL + "/simple"}},
		{Package: "einops", Version: types.VersionUnconstrained, Method: types.MethodFallbackLatest},
		{Package: "numpy", Version: "1.26.4", Method: types.MethodRulePreferred},
		{Package: "scipy", Version: "1.11.4", Specifier: ">=1.11.4", Method: types.MethodFallback},
		{Package: "Pillow", Version: "10.3.0", Method: types.MethodHeuristic},
		{Package: "broken", Version: "1.0", Method: types.MethodHeuristic},
	}
	checks := NewPackageIndexAdapter().CheckPlan(t.Context(), entries, ports.IndexCheckRequest{
		DefaultIndex:     pypi.URL + "/simple",
		HTTPRetries:      1,
		HTTPRetryDelayMs: 1,
	})
	require.Len(t, checks, 4)

	assert.Equal(t, "torch", checks[0].Package)
	assert.True(t, checks[0].Available)
	assert.Equal(t, torchIndex.URL+"/whl", checks[0].Index)

	assert.True(t, checks[1].Available)
	assert.Equal(t, "numpy", checks[1].Package)

	assert.False(t, checks[2].Available)
	assert.Equal(t, "11.0.0", checks[2].Latest)
	assert.Empty(t, checks[2].Error)

	assert.False(t, checks[3].Available)
	assert.Contains(t, checks[3].Error, "failed to fetch pip package")
}

func TestCheckPlanSkipsUnpinnedEntries(t *testing.T) {
	checks := NewPackageIndexAdapter().CheckPlan(t.Context(), []types.ResolvedPackage{
		{Package: "einops", Version: types.VersionUnconstrained, Method: types.MethodFallbackLatest},
	}, ports.IndexCheckRequest{})
	assert.Empty(t, checks)
}
