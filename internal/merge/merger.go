// Package merge implements the Configuration Merger: a pure function
// from global scanner defaults plus per-run overrides to a per-stage
// effective StageSpec, per spec.md §4.7. No I/O, no global mutation.
package merge

import (
	"time"

	"github.com/bountyforge/bountyforge/internal/models"
)

// StageDefaults is one stage's baseline configuration, sourced from the
// scanner-defaults snapshot (config/scanners.yaml).
type StageDefaults struct {
	Binary       string          `yaml:"binary"`
	Mode         models.ScanMode `yaml:"mode"`
	Wordlist     string          `yaml:"wordlist"`
	TemplatesDir string          `yaml:"templates_dir"`
	RateLimit    int             `yaml:"rate_limit"`
	Timeout      string          `yaml:"timeout"`
	Exclude      []string        `yaml:"exclude"`
	ExtraArgv    []string        `yaml:"extra_argv"`
}

// ScannerDefaults is the immutable snapshot of every stage's baseline
// configuration, loaded once at process start and threaded unchanged
// through every job's lifetime, per SPEC_FULL.md §4.7 and spec.md §9's
// "global mutable configuration" redesign note.
type ScannerDefaults struct {
	Stages map[models.StageName]StageDefaults
}

// StageBinary returns the configured binary for stage, falling back to
// the canonical binary-per-stage mapping when the snapshot omits it.
func (d ScannerDefaults) StageBinary(stage models.StageName) string {
	if sd, ok := d.Stages[stage]; ok && sd.Binary != "" {
		return sd.Binary
	}
	return defaultBinaries[stage]
}

// defaultBinaries is the canonical stage→adapter-name mapping. Both
// fuzzer stages (DNS and directory brute-force) share the ffuf
// adapter, distinguished only by ScanMode, per spec.md §9's redesign
// note unifying the fuzzer across two stages.
var defaultBinaries = map[models.StageName]string{
	models.StageSubdomainEnum: "subfinder",
	models.StageDNSBruteforce: "ffuf",
	models.StagePortScan:      "nmap",
	models.StageHTTPProbe:     "httpx",
	models.StageDirBruteforce: "ffuf",
	models.StageTemplateScan:  "nuclei",
}

// defaultStageModes is the canonical ScanMode each stage runs under
// when neither the scanner defaults nor a job override specify one.
var defaultStageModes = map[models.StageName]models.ScanMode{
	models.StageDNSBruteforce: models.ScanModeSubdomain,
	models.StageDirBruteforce: models.ScanModeDirectory,
	models.StageHTTPProbe:     models.ScanModeRecon,
}

// Effective merges defaults.Stages[stage] with a job's per-run
// StageOptions for that stage: override fields replace defaults only
// when explicitly set (non-zero), per spec.md §4.7. The function is
// pure — calling it twice with identical inputs yields an identical
// StageSpec (spec.md §8's "Idempotent merge" property).
func Effective(defaults ScannerDefaults, overrides models.StageOptions, stage models.StageName) models.StageSpec {
	base := defaults.Stages[stage]

	mode := base.Mode
	if mode == "" {
		mode = defaultStageModes[stage]
	}
	if overrides.Mode != "" {
		mode = overrides.Mode
	}
	mode = mode.Normalize()

	wordlist := base.Wordlist
	if overrides.Wordlist != "" {
		wordlist = overrides.Wordlist
	}

	templatesDir := base.TemplatesDir
	if overrides.TemplatesDir != "" {
		templatesDir = overrides.TemplatesDir
	}

	rateLimit := base.RateLimit
	if overrides.RateLimit != 0 {
		rateLimit = overrides.RateLimit
	}

	var timeout time.Duration
	if base.Timeout != "" {
		if d, err := time.ParseDuration(base.Timeout); err == nil {
			timeout = d
		}
	}
	if overrides.Timeout != "" {
		if d, err := time.ParseDuration(overrides.Timeout); err == nil {
			timeout = d
		}
	}

	extraArgv := base.ExtraArgv
	if len(overrides.ExtraArgv) > 0 {
		extraArgv = append([]string{}, overrides.ExtraArgv...)
	}

	return models.StageSpec{
		Stage:        stage,
		Binary:       defaults.StageBinary(stage),
		Mode:         mode,
		Wordlist:     wordlist,
		TemplatesDir: templatesDir,
		RateLimit:    rateLimit,
		Timeout:      timeout,
		Exclude:      append([]string{}, base.Exclude...),
		ExtraArgv:    extraArgv,
	}
}
