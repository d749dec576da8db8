package adapters

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"comfyui-deps/internal/ports"
	"comfyui-deps/internal/shared"
	"comfyui-deps/internal/types"
)

// maxRequirementsBytes caps a single requirements file.
const maxRequirementsBytes = 4 << 20

type SourceFetcherAdapter struct {
	// Client overrides the HTTP client. Its Timeout is ignored in favour of
	// the per-source context deadline.
	Client *http.Client
}

func NewSourceFetcherAdapter() SourceFetcherAdapter {
	return SourceFetcherAdapter{}
}

type fetchTask struct {
	index  int
	source types.SourceSpec
}

// FetchAll retrieves every source on a bounded worker pool. The result
// slice is indexed by source position, so callers see configured order no
// matter which fetch finishes first. A failed source carries Err and no
// lines.
func (a SourceFetcherAdapter) FetchAll(ctx context.Context, request ports.SourceFetchRequest) []ports.SourceFetchResult {
	results := make([]ports.SourceFetchResult, len(request.Sources))
	if len(request.Sources) == 0 {
		return results
	}
	httpCfg := normalizeHTTPConfig(request.HTTPTimeoutSec, request.HTTPRetries, request.HTTPRetryDelayMs)
	client := a.Client
	if client == nil {
		client = &http.Client{}
	}

	workerCount := request.Workers
	if workerCount <= 0 {
		workerCount = defaultFetchWorkers
	}
	if len(request.Sources) < workerCount {
		workerCount = len(request.Sources)
	}

	tasks := make(chan fetchTask)
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				lines, attempts, err := fetchSource(ctx, client, task.source, httpCfg)
				if err != nil {
					log.Ctx(ctx).Warn().
						Str("source", task.source.ID).
						Str("url", task.source.URL).
						Err(err).
						Msg("failed to fetch requirements")
				} else {
					log.Ctx(ctx).Debug().
						Str("source", task.source.ID).
						Int("lines", len(lines)).
						Msg("fetched requirements")
				}
				results[task.index] = ports.SourceFetchResult{
					Source:   task.source,
					Lines:    lines,
					Attempts: attempts,
					Err:      err,
				}
			}
		}()
	}
	for i, source := range request.Sources {
		tasks <- fetchTask{index: i, source: source}
	}
	close(tasks)
	wg.Wait()
	return results
}

func fetchSource(ctx context.Context, client *http.Client, source types.SourceSpec, httpCfg httpRetryConfig) ([]string, int, error) {
	raw := strings.TrimSpace(source.URL)
	if raw == "" {
		return nil, 0, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("source %s has no url", source.ID))
	}
	parsed, err := url.Parse(raw)
	if err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		ctx, cancel := context.WithTimeout(ctx, httpCfg.timeout)
		defer cancel()
		return fetchHTTPSource(ctx, client, raw, httpCfg)
	}
	path := raw
	if err == nil && parsed.Scheme == "file" {
		path = parsed.Path
	}
	lines, err := readRequirementsFile(path)
	return lines, 1, err
}

func fetchHTTPSource(ctx context.Context, client *http.Client, target string, httpCfg httpRetryConfig) ([]string, int, error) {
	resp, attempts, err := doRequest(ctx, client, target, httpCfg)
	if err != nil {
		return nil, attempts, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, attempts, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("requirements file not found").
			WithCause(shared.HTTPStatusError(resp.StatusCode, target))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, attempts, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to fetch requirements").
			WithCause(shared.HTTPStatusError(resp.StatusCode, target))
	}
	lines, err := splitRequirementLines(resp.Body)
	if err != nil {
		return nil, attempts, err
	}
	return lines, attempts, nil
}

func readRequirementsFile(path string) ([]string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("requirements file not found").
				WithCause(err)
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open requirements file").
			WithCause(err)
	}
	defer file.Close()
	return splitRequirementLines(file)
}

// splitRequirementLines returns raw lines without their terminators. They
// are parsed later so that parse failures are attributed to the source.
func splitRequirementLines(reader io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(io.LimitReader(reader, maxRequirementsBytes))
	scanner.Buffer(make([]byte, 0, 64*1024), maxRequirementsBytes)
	lines := []string{}
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read requirements").
			WithCause(err)
	}
	return lines, nil
}

var _ ports.SourceFetcherPort = SourceFetcherAdapter{}
