package app

import (
	"time"

	"comfyui-deps/internal/adapters"
	"comfyui-deps/internal/core"
	"comfyui-deps/internal/ports"
)

type Service struct {
	ConfigLoader ports.ConfigLoaderPort
	Fetcher      ports.SourceFetcherPort
	Workspace    ports.WorkspacePort
	Index        ports.PackageIndexPort
	Installer    ports.InstallerPort
	OutputReader ports.OutputReaderPort
	NewOutput    func(dir string) ports.OutputPort
	NewMetrics   func() ports.MetricsPort
	Validator    core.ConfigValidator
	Clock        func() time.Time
}

func NewService() Service {
	return Service{
		ConfigLoader: adapters.NewConfigFileAdapter(),
		Fetcher:      adapters.NewSourceFetcherAdapter(),
		Workspace:    adapters.NewWorkspaceAdapter(),
		Index:        adapters.NewPackageIndexAdapter(),
		Installer:    adapters.NewPipInstallerAdapter(),
		OutputReader: adapters.NewOutputReaderAdapter(),
		NewOutput: func(dir string) ports.OutputPort {
			return adapters.NewOutputFileAdapter(dir)
		},
		NewMetrics: func() ports.MetricsPort {
			return adapters.NewMetricsTextfileAdapter()
		},
		Validator: core.NewConfigValidator(),
		Clock:     time.Now,
	}
}
