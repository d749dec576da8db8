package ports

import "comfyui-deps/internal/types"

type OutputPort interface {
	WriteLockFile(plan types.InstallationPlan) error
	WriteExcluded(excluded []types.ExcludedPackage) error
	WriteInstallScript(plan types.InstallationPlan, python string) error
	WriteResolutionReport(report types.ResolutionReport) error
}

type OutputReaderPort interface {
	ReadResolutionReport(path string) (types.ResolutionReport, error)
	ReadLockFile(path string) ([]types.LockEntry, error)
}
