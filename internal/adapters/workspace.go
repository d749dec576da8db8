package adapters

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"comfyui-deps/internal/ports"
	"comfyui-deps/internal/shared"
	"comfyui-deps/internal/types"
)

const requirementsFileName = "requirements.txt"

type WorkspaceAdapter struct{}

func NewWorkspaceAdapter() WorkspaceAdapter {
	return WorkspaceAdapter{}
}

// FindRequirementSources walks a custom_nodes directory. A node that is a
// git checkout is named after its origin remote so trust weights keyed by
// owner apply; otherwise it is named after its directory.
func (a WorkspaceAdapter) FindRequirementSources(root string) ([]types.SourceSpec, error) {
	if root == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("custom nodes root is empty")
	}
	var sources []types.SourceSpec
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && shouldSkipWorkspaceDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != requirementsFileName {
			return nil
		}
		dir := filepath.Dir(path)
		id := nodeSourceID(root, dir)
		sources = append(sources, types.SourceSpec{ID: id, URL: path})
		return nil
	})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan custom nodes").
			WithCause(err)
	}
	return sources, nil
}

func nodeSourceID(root string, dir string) string {
	if remote := gitOriginURL(filepath.Join(dir, ".git", "config")); remote != "" {
		if id := shared.SourceIDFromURL(remote); id != "" {
			return id
		}
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return filepath.Base(dir)
	}
	return filepath.ToSlash(rel)
}

// gitOriginURL reads the origin url from a git config file. It returns ""
// when the file or the remote is missing.
func gitOriginURL(configPath string) string {
	file, err := os.Open(configPath)
	if err != nil {
		return ""
	}
	defer file.Close()
	inOrigin := false
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			inOrigin = line == `[remote "origin"]`
			continue
		}
		if !inOrigin {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if ok && strings.TrimSpace(key) == "url" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func shouldSkipWorkspaceDir(name string) bool {
	switch name {
	case ".git", "__pycache__", "node_modules", "venv", ".venv", "site-packages", ".disabled":
		return true
	default:
		return false
	}
}

var _ ports.WorkspacePort = WorkspaceAdapter{}
