package ports

import "comfyui-deps/internal/types"

type MetricsPort interface {
	ObserveReport(report types.ResolutionReport)
	ObserveInstall(results []types.InstallResult)
	WriteTextfile(path string) error
}
