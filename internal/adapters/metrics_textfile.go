package adapters

import (
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/prometheus/client_golang/prometheus"

	"comfyui-deps/internal/ports"
	"comfyui-deps/internal/types"
)

// MetricsTextfileAdapter collects run metrics on a private registry and
// writes them in the node exporter textfile format.
type MetricsTextfileAdapter struct {
	registry *prometheus.Registry

	packages        *prometheus.GaugeVec
	methods         *prometheus.GaugeVec
	conflicts       prometheus.Gauge
	overrides       prometheus.Gauge
	sources         *prometheus.GaugeVec
	parseFailures   prometheus.Gauge
	installs        *prometheus.CounterVec
	installAttempts prometheus.Histogram
	lastRun         prometheus.Gauge
}

func NewMetricsTextfileAdapter() *MetricsTextfileAdapter {
	a := &MetricsTextfileAdapter{
		registry: prometheus.NewRegistry(),
		packages: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "comfyui_deps_packages",
				Help: "Packages seen in the last resolution by outcome.",
			},
			[]string{"state"},
		),
		methods: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "comfyui_deps_resolved_packages_by_method",
				Help: "Resolved packages in the last resolution by resolution method.",
			},
			[]string{"method"},
		),
		conflicts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "comfyui_deps_conflicts",
				Help: "Packages with conflicting version requests in the last resolution.",
			},
		),
		overrides: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "comfyui_deps_conflict_overrides",
				Help: "Conflicts settled by choosing a version in the last resolution.",
			},
		),
		sources: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "comfyui_deps_sources",
				Help: "Requirement sources in the last resolution by state.",
			},
			[]string{"state"},
		),
		parseFailures: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "comfyui_deps_parse_failures",
				Help: "Requirement lines that could not be parsed in the last resolution.",
			},
		),
		installs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comfyui_deps_install_total",
				Help: "Package installs by result.",
			},
			[]string{"result"},
		),
		installAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "comfyui_deps_install_attempts",
				Help:    "pip invocations needed per package install.",
				Buckets: []float64{1, 2, 3, 5, 8},
			},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "comfyui_deps_last_run_timestamp_seconds",
				Help: "Unix time of the last observed resolution.",
			},
		),
	}
	a.registry.MustRegister(
		a.packages,
		a.methods,
		a.conflicts,
		a.overrides,
		a.sources,
		a.parseFailures,
		a.installs,
		a.installAttempts,
		a.lastRun,
	)
	return a
}

func (a *MetricsTextfileAdapter) ObserveReport(report types.ResolutionReport) {
	summary := report.Summary
	a.packages.WithLabelValues("total").Set(float64(summary.TotalPackages))
	a.packages.WithLabelValues("resolved").Set(float64(summary.Resolved))
	a.packages.WithLabelValues("failed").Set(float64(summary.Failed))
	a.packages.WithLabelValues("excluded").Set(float64(summary.Excluded))
	a.conflicts.Set(float64(summary.Conflicts))
	a.overrides.Set(float64(summary.Overrides))
	a.sources.WithLabelValues("analyzed").Set(float64(summary.SourcesAnalyzed))
	a.sources.WithLabelValues("degraded").Set(float64(summary.SourcesDegraded))
	a.parseFailures.Set(float64(summary.ParseFailures))

	for _, method := range types.Methods {
		a.methods.WithLabelValues(string(method)).Set(0)
	}
	for _, entry := range report.Plan.Entries {
		a.methods.WithLabelValues(string(entry.Method)).Inc()
	}
	a.lastRun.SetToCurrentTime()
}

func (a *MetricsTextfileAdapter) ObserveInstall(results []types.InstallResult) {
	for _, result := range results {
		label := "success"
		if !result.Success {
			label = "failure"
		}
		a.installs.WithLabelValues(label).Inc()
		if result.Attempts > 0 {
			a.installAttempts.Observe(float64(result.Attempts))
		}
	}
}

// WriteTextfile writes the registry atomically to path.
func (a *MetricsTextfileAdapter) WriteTextfile(path string) error {
	if path == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("metrics file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create metrics directory").
			WithCause(err)
	}
	if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write metrics textfile").
			WithCause(err)
	}
	return nil
}

var _ ports.MetricsPort = (*MetricsTextfileAdapter)(nil)
