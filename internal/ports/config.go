package ports

import "comfyui-deps/internal/types"

type ConfigLoaderPort interface {
	LoadConfig(path string) (types.Config, error)
}
