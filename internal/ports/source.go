package ports

import (
	"context"

	"comfyui-deps/internal/types"
)

type SourceFetchRequest struct {
	Sources          []types.SourceSpec
	Workers          int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
}

// SourceFetchResult is the outcome for one source. Err is set when the
// source could not be read; Lines is then empty.
type SourceFetchResult struct {
	Source   types.SourceSpec
	Lines    []string
	Attempts int
	Err      error
}

type SourceFetcherPort interface {
	// FetchAll returns one result per requested source, in request
	// order, whatever order the fetches complete in.
	FetchAll(ctx context.Context, request SourceFetchRequest) []SourceFetchResult
}
