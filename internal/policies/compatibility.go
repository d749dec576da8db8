package policies

import "comfyui-deps/internal/shared"

// IncompatiblePair names two packages that should not share one
// environment.
type IncompatiblePair struct {
	First  string
	Second string
	Reason string
}

func DefaultIncompatiblePairs() []IncompatiblePair {
	return []IncompatiblePair{
		{First: "torch", Second: "tensorflow", Reason: "GPU memory contention"},
		{First: "opencv-python", Second: "opencv-contrib-python", Reason: "overlapping cv2 module"},
		{First: "pillow", Second: "pillow-simd", Reason: "competing PIL implementations"},
	}
}

// FindIncompatible returns the pairs whose members are both present.
func FindIncompatible(pairs []IncompatiblePair, packages []string) []IncompatiblePair {
	present := make(map[string]struct{}, len(packages))
	for _, name := range packages {
		present[shared.NormalizePipName(name)] = struct{}{}
	}
	var out []IncompatiblePair
	for _, pair := range pairs {
		_, first := present[shared.NormalizePipName(pair.First)]
		_, second := present[shared.NormalizePipName(pair.Second)]
		if first && second {
			out = append(out, pair)
		}
	}
	return out
}
