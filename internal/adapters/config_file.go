package adapters

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"comfyui-deps/internal/ports"
	"comfyui-deps/internal/shared"
	"comfyui-deps/internal/types"
)

type ConfigFileAdapter struct{}

func NewConfigFileAdapter() ConfigFileAdapter {
	return ConfigFileAdapter{}
}

// LoadConfig reads a resolution config. Sources without an id get one
// derived from their URL, and relative local paths are resolved against
// the directory holding the config file.
func (a ConfigFileAdapter) LoadConfig(path string) (types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Config{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("config file not found").
			WithCause(err)
	}
	var cfg types.Config
	// Unknown keys are CLI settings read through viper from the same file.
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return types.Config{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse config yaml").
			WithCause(err)
	}
	baseDir := filepath.Dir(path)
	for i := range cfg.Sources {
		cfg.Sources[i].URL = resolveLocalSource(baseDir, strings.TrimSpace(cfg.Sources[i].URL))
		if strings.TrimSpace(cfg.Sources[i].ID) == "" {
			cfg.Sources[i].ID = shared.SourceIDFromURL(cfg.Sources[i].URL)
		}
	}
	return cfg, nil
}

func resolveLocalSource(baseDir string, raw string) string {
	if raw == "" {
		return raw
	}
	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		return raw
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Join(baseDir, raw)
}

var _ ports.ConfigLoaderPort = ConfigFileAdapter{}
