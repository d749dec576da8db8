package ports

import (
	"context"

	"comfyui-deps/internal/types"
)

type InstallRequest struct {
	Python     string
	Retries    int
	BackoffSec int
	ExtraArgs  []string
	DryRun     bool
}

type InstallerPort interface {
	Install(ctx context.Context, entry types.ResolvedPackage, request InstallRequest) types.InstallResult
}
