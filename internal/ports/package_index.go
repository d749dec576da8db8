package ports

import (
	"context"

	"comfyui-deps/internal/types"
)

type IndexCheckRequest struct {
	// DefaultIndex is used for entries without an index override.
	DefaultIndex     string
	Workers          int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
}

type PackageIndexPort interface {
	CheckPlan(ctx context.Context, entries []types.ResolvedPackage, request IndexCheckRequest) []types.IndexCheck
}
