package adapters

import (
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"comfyui-deps/internal/ports"
	"comfyui-deps/internal/types"
)

type OutputReaderAdapter struct{}

func NewOutputReaderAdapter() OutputReaderAdapter {
	return OutputReaderAdapter{}
}

func (a OutputReaderAdapter) ReadResolutionReport(path string) (types.ResolutionReport, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.ResolutionReport{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("resolution.yaml not found").
			WithCause(err)
	}
	var report types.ResolutionReport
	if err := yaml.Unmarshal(content, &report); err != nil {
		return types.ResolutionReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid resolution.yaml format").
			WithCause(err)
	}
	return report, nil
}

// ReadLockFile returns the lock entries with the tier of the block they
// appear in. Entries before any tier header are FLEXIBLE.
func (a OutputReaderAdapter) ReadLockFile(path string) ([]types.LockEntry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("requirements.lock.txt not found").
			WithCause(err)
	}
	tier := types.TierFlexible
	var entries []types.LockEntry
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if parsed, ok := types.ParsePriorityTier(strings.TrimSpace(strings.TrimPrefix(line, "#"))); ok {
				tier = parsed
			}
			continue
		}
		if strings.ContainsAny(line, " \t") {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid requirements.lock.txt format")
		}
		entries = append(entries, types.LockEntry{Tier: tier, Spec: line})
	}
	return entries, nil
}

var _ ports.OutputReaderPort = OutputReaderAdapter{}
