package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceIDFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://github.com/ltdrdata/ComfyUI-Impact-Pack/raw/Main/requirements.txt", "ltdrdata/ComfyUI-Impact-Pack"},
		{"https://raw.githubusercontent.com/comfyanonymous/ComfyUI/master/requirements.txt", "comfyanonymous/ComfyUI"},
		{"https://mirror.example.com/reqs/core.txt", "mirror.example.com/reqs/core.txt"},
		{"file:///srv/requirements/../core.txt", "/srv/core.txt"},
		{"./requirements.txt", "requirements.txt"},
		{"https://github.com/kijai/ComfyUI-KJNodes.git", "kijai/ComfyUI-KJNodes"},
		{"git@github.com:cubiq/ComfyUI_essentials.git", "cubiq/ComfyUI_essentials"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, SourceIDFromURL(tt.raw))
		})
	}
}

func TestNormalizePipNames(t *testing.T) {
	got := NormalizePipNames([]string{"Pillow", "zope.interface", "", "pillow", "ruamel_yaml"})
	assert.Equal(t, []string{"pillow", "zope-interface", "ruamel-yaml"}, got)
}
