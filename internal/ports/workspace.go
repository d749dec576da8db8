package ports

import "comfyui-deps/internal/types"

type WorkspacePort interface {
	// FindRequirementSources lists the requirements files of every custom
	// node under root, in path order.
	FindRequirementSources(root string) ([]types.SourceSpec, error)
}
