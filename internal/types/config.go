package types

// SourceSpec names one requirement origin. URL may be an http(s) URL, a
// file:// URL or a local path.
type SourceSpec struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
}

type FetchOptions struct {
	Workers      int `yaml:"workers,omitempty"`
	TimeoutSec   int `yaml:"timeout_sec,omitempty"`
	Retries      int `yaml:"retries,omitempty"`
	RetryDelayMs int `yaml:"retry_delay_ms,omitempty"`
}

type InstallOptions struct {
	Python     string   `yaml:"python,omitempty"`
	Retries    int      `yaml:"retries,omitempty"`
	BackoffSec int      `yaml:"backoff_sec,omitempty"`
	ExtraArgs  []string `yaml:"extra_args,omitempty"`
}

// Config is the operator input to a resolution run: where requirements
// come from, which packages are handled out of band, and changes to the
// built-in rule table.
type Config struct {
	Sources            []SourceSpec      `yaml:"sources"`
	AdditionalPackages []string          `yaml:"additional_packages,omitempty"`
	Excluded           []string          `yaml:"excluded,omitempty"`
	Forced             map[string]string `yaml:"forced,omitempty"`
	Rules              []RuleOverride    `yaml:"rules,omitempty"`
	SourceTrust        SourceTrust       `yaml:"source_trust,omitempty"`
	DefaultTrust       int               `yaml:"default_trust,omitempty"`
	Fetch              FetchOptions      `yaml:"fetch,omitempty"`
	Install            InstallOptions    `yaml:"install,omitempty"`
}

// AdditionalSourceID identifies the operator's injected package list.
const AdditionalSourceID = "additional_packages"
