package adapters

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	"github.com/rs/zerolog/log"

	"comfyui-deps/internal/ports"
	"comfyui-deps/internal/shared"
	"comfyui-deps/internal/types"
)

const DefaultSimpleIndex = "https://pypi.org/simple"

var (
	simpleHrefPattern = regexp.MustCompile(`href=["']([^"']+)["']`)
	wheelPattern      = regexp.MustCompile(`^(.+?)-([0-9][^-]*)(?:-[^-]+)?-[^-]+-[^-]+-[^-]+\.whl$`)
	sdistPattern      = regexp.MustCompile(`^(.+?)-([0-9][^-]*)\.(?:tar\.gz|zip|tar\.bz2|tar\.xz|tgz)$`)
)

// PackageIndexAdapter checks planned versions against PEP 503 simple
// indexes.
type PackageIndexAdapter struct {
	Client *http.Client
}

func NewPackageIndexAdapter() PackageIndexAdapter {
	return PackageIndexAdapter{}
}

// CheckPlan looks up every exactly pinned entry on its index, then on its
// extra indexes, and reports whether the version is published. Entries the
// installer picks freely or that carry a range are skipped. Results follow
// plan order.
func (a PackageIndexAdapter) CheckPlan(ctx context.Context, entries []types.ResolvedPackage, request ports.IndexCheckRequest) []types.IndexCheck {
	var pinned []types.ResolvedPackage
	for _, entry := range entries {
		if entry.Unconstrained() || (entry.Method == types.MethodFallback && entry.Specifier != "") {
			continue
		}
		pinned = append(pinned, entry)
	}
	checks := make([]types.IndexCheck, len(pinned))
	if len(pinned) == 0 {
		return checks
	}
	httpCfg := normalizeHTTPConfig(request.HTTPTimeoutSec, request.HTTPRetries, request.HTTPRetryDelayMs)
	client := a.Client
	if client == nil {
		client = &http.Client{}
	}
	defaultIndex := strings.TrimSpace(request.DefaultIndex)
	if defaultIndex == "" {
		defaultIndex = DefaultSimpleIndex
	}
	workerCount := request.Workers
	if workerCount <= 0 {
		workerCount = defaultFetchWorkers
	}
	if len(pinned) < workerCount {
		workerCount = len(pinned)
	}

	tasks := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range tasks {
				checks[index] = checkEntry(ctx, client, pinned[index], defaultIndex, httpCfg)
			}
		}()
	}
	for i := range pinned {
		tasks <- i
	}
	close(tasks)
	wg.Wait()
	return checks
}

func checkEntry(ctx context.Context, client *http.Client, entry types.ResolvedPackage, defaultIndex string, httpCfg httpRetryConfig) types.IndexCheck {
	indexes := []string{defaultIndex}
	if entry.IndexURL != "" {
		indexes = []string{entry.IndexURL}
	}
	indexes = append(indexes, entry.ExtraIndexURLs...)

	check := types.IndexCheck{Package: entry.Package, Version: entry.Version}
	var errs []string
	for _, index := range indexes {
		ctx, cancel := context.WithTimeout(ctx, httpCfg.timeout)
		versions, err := fetchPipPackageVersions(ctx, client, normalizePipSimpleIndex(index), entry.Package, httpCfg)
		cancel()
		if err != nil {
			errs = append(errs, shared.ErrorMessage(err))
			log.Ctx(ctx).Debug().Str("package", entry.Package).Str("index", index).Err(err).Msg("index lookup failed")
			continue
		}
		if versionPublished(entry.Version, versions) {
			check.Available = true
			check.Index = index
			return check
		}
		if check.Latest == "" && len(versions) > 0 {
			check.Latest = versions[len(versions)-1]
		}
	}
	check.Error = strings.Join(errs, "; ")
	return check
}

// versionPublished treats a pin without a local label as matching any
// local build of it, so 2.6.0 matches 2.6.0+cu121.
func versionPublished(version string, published []string) bool {
	want, err := pep440.Parse(version)
	if err != nil {
		for _, candidate := range published {
			if candidate == version {
				return true
			}
		}
		return false
	}
	ignoreLocal := !strings.Contains(version, "+")
	for _, candidate := range published {
		if ignoreLocal {
			candidate, _, _ = strings.Cut(candidate, "+")
		}
		got, err := pep440.Parse(candidate)
		if err == nil && got.Compare(want) == 0 {
			return true
		}
	}
	return false
}

func fetchPipPackageVersions(ctx context.Context, client *http.Client, simpleBase string, name string, httpCfg httpRetryConfig) ([]string, error) {
	url := strings.TrimRight(simpleBase, "/") + "/" + shared.NormalizePipName(name) + "/"
	resp, _, err := doRequest(ctx, client, url, httpCfg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to fetch pip package").
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read pip package index").
			WithCause(err)
	}
	return sortPep440Versions(parsePipVersionsFromSimple(string(body))), nil
}

func normalizePipSimpleIndex(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if strings.HasSuffix(trimmed, "/simple") {
		return trimmed + "/"
	}
	// download.pytorch.org/whl/cu121 serves the simple layout directly.
	if strings.Contains(trimmed, "/whl") {
		return trimmed + "/"
	}
	return trimmed + "/simple/"
}

func parsePipVersionsFromSimple(content string) []string {
	matches := simpleHrefPattern.FindAllStringSubmatch(content, -1)
	versions := map[string]struct{}{}
	for _, match := range matches {
		raw := strings.Split(match[1], "#")[0]
		raw = strings.Split(raw, "?")[0]
		version := parsePipVersionFromFilename(filepath.Base(raw))
		if version == "" {
			continue
		}
		if _, err := pep440.Parse(version); err != nil {
			continue
		}
		versions[version] = struct{}{}
	}
	out := make([]string, 0, len(versions))
	for version := range versions {
		out = append(out, version)
	}
	return out
}

func parsePipVersionFromFilename(filename string) string {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return ""
	}
	// %2B is how indexes escape the local version separator.
	filename = strings.ReplaceAll(filename, "%2B", "+")
	if match := wheelPattern.FindStringSubmatch(filename); len(match) == 3 {
		return match[2]
	}
	if match := sdistPattern.FindStringSubmatch(filename); len(match) == 3 {
		return match[2]
	}
	return ""
}

func sortPep440Versions(versions []string) []string {
	sort.Slice(versions, func(i, j int) bool {
		vi, err := pep440.Parse(versions[i])
		if err != nil {
			return versions[i] < versions[j]
		}
		vj, err := pep440.Parse(versions[j])
		if err != nil {
			return versions[i] < versions[j]
		}
		if cmp := vi.Compare(vj); cmp != 0 {
			return cmp < 0
		}
		return versions[i] < versions[j]
	})
	return versions
}

var _ ports.PackageIndexPort = PackageIndexAdapter{}
