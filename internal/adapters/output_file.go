package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"comfyui-deps/internal/core"
	"comfyui-deps/internal/ports"
	"comfyui-deps/internal/types"
)

const (
	LockFileName     = "requirements.lock.txt"
	ExcludedFileName = "excluded.txt"
	ScriptFileName   = "install.sh"
	ReportFileName   = "resolution.yaml"
)

const generatedHeader = "# Generated by comfyui-deps. Do not edit."

type OutputFileAdapter struct {
	Dir string
}

func NewOutputFileAdapter(dir string) OutputFileAdapter {
	return OutputFileAdapter{Dir: dir}
}

// WriteLockFile writes the plan in install order, one "# TIER" block per
// tier that has entries.
func (a OutputFileAdapter) WriteLockFile(plan types.InstallationPlan) error {
	path, err := a.ensurePath(LockFileName)
	if err != nil {
		return err
	}
	lines := []string{generatedHeader}
	var current types.PriorityTier
	for _, entry := range plan.Entries {
		if entry.Tier != current {
			lines = append(lines, "", "# "+string(entry.Tier))
			current = entry.Tier
		}
		lines = append(lines, core.InstallSpec(entry))
	}
	return writeLines(path, lines, 0644)
}

func (a OutputFileAdapter) WriteExcluded(excluded []types.ExcludedPackage) error {
	path, err := a.ensurePath(ExcludedFileName)
	if err != nil {
		return err
	}
	lines := []string{generatedHeader, "# Install these separately; they need special handling.", ""}
	for _, entry := range excluded {
		line := entry.Package
		if entry.PreferredVersion != "" {
			line += "==" + entry.PreferredVersion
		}
		if entry.Reason != "" {
			line += "  # " + entry.Reason
		}
		lines = append(lines, line)
	}
	return writeLines(path, lines, 0644)
}

// WriteInstallScript writes a bash script that installs entries with
// index overrides one by one, then the rest of the lock file, then the
// excluded list without failing the script.
func (a OutputFileAdapter) WriteInstallScript(plan types.InstallationPlan, python string) error {
	path, err := a.ensurePath(ScriptFileName)
	if err != nil {
		return err
	}
	if strings.TrimSpace(python) == "" {
		python = defaultPython
	}
	pip := shellQuote(python) + " -m pip install --no-cache-dir"
	lines := []string{
		"#!/usr/bin/env bash",
		generatedHeader,
		"set -euo pipefail",
		`cd "$(dirname "$0")"`,
		"",
		pip + " --upgrade pip wheel setuptools",
	}
	var pinned []types.ResolvedPackage
	for _, entry := range plan.Entries {
		if entry.IndexURL != "" || len(entry.ExtraIndexURLs) > 0 {
			pinned = append(pinned, entry)
		}
	}
	if len(pinned) > 0 {
		lines = append(lines, "", "echo 'installing packages with dedicated indexes'")
		for _, entry := range pinned {
			args := PipInstallArgs(entry, nil)[3:]
			quoted := make([]string, 0, len(args))
			for _, arg := range args {
				if strings.HasPrefix(arg, "--") {
					quoted = append(quoted, arg)
					continue
				}
				quoted = append(quoted, shellQuote(arg))
			}
			lines = append(lines, shellQuote(python)+" -m pip install "+strings.Join(quoted, " "))
		}
	}
	lines = append(lines,
		"",
		"echo 'installing "+LockFileName+"'",
		pip+" -r "+LockFileName,
	)
	if len(plan.Excluded) > 0 {
		lines = append(lines,
			"",
			"echo 'installing "+ExcludedFileName+"'",
			pip+" -r "+ExcludedFileName+" || echo 'some excluded packages failed to install' >&2",
		)
	}
	return writeLines(path, lines, 0755)
}

func (a OutputFileAdapter) WriteResolutionReport(report types.ResolutionReport) error {
	path, err := a.ensurePath(ReportFileName)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode resolution report").
			WithCause(err)
	}
	return writeFile(path, data, 0644)
}

func (a OutputFileAdapter) ensurePath(filename string) (string, error) {
	if a.Dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, filename), nil
}

func writeLines(path string, lines []string, mode os.FileMode) error {
	return writeFile(path, []byte(strings.Join(lines, "\n")+"\n"), mode)
}

func writeFile(path string, data []byte, mode os.FileMode) error {
	if err := os.WriteFile(path, data, mode); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write %s", filepath.Base(path))).
			WithCause(err)
	}
	return nil
}

func shellQuote(value string) string {
	if value != "" && strings.IndexFunc(value, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=+@", r))
	}) < 0 {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

var _ ports.OutputPort = OutputFileAdapter{}
