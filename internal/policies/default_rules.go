package policies

import "comfyui-deps/internal/types"

// DefaultTrustWeight applies to sources missing from every trust table.
const DefaultTrustWeight = 5

const (
	pytorchIndexURL = "https://download.pytorch.org/whl/cu121"
	pypiIndexURL    = "https://pypi.org/simple"
)

// DefaultSourceTrust ranks the operator's own list above ComfyUI core,
// and core above custom node authors.
func DefaultSourceTrust() types.SourceTrust {
	return types.SourceTrust{
		types.AdditionalSourceID: 10,
		"comfyanonymous":         9,
		"ltdrdata":               8,
		"kijai":                  7,
		"cubiq":                  7,
		"Fannovel16":             6,
	}
}

// DefaultRules is the curated table for a CUDA 12.1 ComfyUI image.
func DefaultRules() []types.PackageVersionRule {
	torchIndex := func(rule types.PackageVersionRule) types.PackageVersionRule {
		rule.IndexURL = pytorchIndexURL
		rule.ExtraIndexURLs = []string{pypiIndexURL}
		return rule
	}
	return []types.PackageVersionRule{
		torchIndex(types.PackageVersionRule{
			Package:          "torch",
			Tier:             types.TierCritical,
			PreferredVersion: "2.6.0",
			Reason:           "CUDA compatibility",
		}),
		torchIndex(types.PackageVersionRule{
			Package: "torchvision",
			Tier:    types.TierCritical,
			Reason:  "must match torch",
		}),
		torchIndex(types.PackageVersionRule{
			Package: "torchaudio",
			Tier:    types.TierCritical,
			Reason:  "must match torch",
		}),
		{
			Package:          "xformers",
			Tier:             types.TierCritical,
			PreferredVersion: "0.0.29.post3",
			Reason:           "built against torch 2.6.0",
		},
		{
			Package: "cuda-python",
			Tier:    types.TierCritical,
			Reason:  "CUDA runtime",
		},
		{
			Package:          "numpy",
			Tier:             types.TierHigh,
			PreferredVersion: "1.26.4",
			MinVersion:       "1.25.0",
			MaxVersion:       "1.26.4",
			Reason:           "last 1.x release; most nodes break on numpy 2",
		},
		{
			Package:    "pillow",
			Tier:       types.TierHigh,
			MinVersion: "10.1.0",
			Reason:     "security fixes",
		},
		{
			Package:          "opencv-python",
			Tier:             types.TierHigh,
			PreferredVersion: "4.8.0.76",
			MinVersion:       "4.7.0.68",
			Reason:           "ComfyUI compatibility",
		},
		{
			Package:    "transformers",
			Tier:       types.TierHigh,
			MinVersion: "4.45.0",
			Reason:     "model support",
		},
		{
			Package:          "insightface",
			Tier:             types.TierHigh,
			PreferredVersion: "0.7.3",
			Reason:           "build problems on other versions",
		},
		{
			Package:          "dlib",
			Tier:             types.TierHigh,
			PreferredVersion: "19.24.2",
			Reason:           "slow native build; stick to a known good release",
		},
		{
			Package:          "fairscale",
			Tier:             types.TierHigh,
			PreferredVersion: "0.4.13",
			Reason:           "torch compatibility",
		},
		{
			Package:    "diffusers",
			Tier:       types.TierMedium,
			MinVersion: "0.29.0",
			Reason:     "stability",
		},
		{
			Package:    "accelerate",
			Tier:       types.TierMedium,
			MinVersion: "0.26.0",
			Reason:     "performance",
		},
		{
			Package:    "safetensors",
			Tier:       types.TierMedium,
			MinVersion: "0.4.2",
			Reason:     "security fixes",
		},
		{
			Package:          "pytorch-lightning",
			Tier:             types.TierMedium,
			PreferredVersion: "2.5.2",
			Reason:           "stability",
		},
	}
}

// DefaultExcluded lists packages installed out of band by the image
// build, or known to break a shared environment.
func DefaultExcluded() []string {
	return []string{
		"insightface",
		"dlib",
		"fairscale",
		"pytorch-lightning",
		"voluptuous",
		"gguf",
		"nunchaku",
		"imagesize",
		"argostranslate",
		"litelama",
		"evalidate",
		"bizyengine",
		"sortedcontainers",
		"pyhocon",
		"fal-client",
	}
}

// DefaultAdditionalPackages is the operator list injected as its own
// source after every fetched one.
func DefaultAdditionalPackages() []string {
	return []string{
		"torch==2.6.0",
		"torchvision",
		"torchaudio",
		"xformers==0.0.29.post3",
		"opencv-python==4.8.0.76",
		"opencv-contrib-python==4.8.0.76",
		"sageattention==1.0.6",
		"bizyengine==1.2.4",
		"sortedcontainers==2.4.0",
		"pyhocon==0.3.59",
		"fal-client==0.6.0",
	}
}

// NewDefaultRuleTable builds the built-in table.
func NewDefaultRuleTable() (*RuleTable, error) {
	return NewRuleTable(DefaultRules(), DefaultSourceTrust(), DefaultTrustWeight)
}
