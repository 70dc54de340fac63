package adapter

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	"github.com/bountyforge/bountyforge/internal/models"
)

// Ffuf wraps the fuzzer binary in two configurations selected by
// spec.Mode: subdomain mode (DNS brute-force, Host header fuzzing) and
// directory mode (path fuzzing), per spec.md §4.2. Unlike the other
// adapters, ffuf cannot take a comma-joined target list, so Invoke
// loops per-host and merges the parsed records (mirrors the Python
// original's per-host loop).
type Ffuf struct {
	Base
}

// NewFfuf constructs an Ffuf adapter.
func NewFfuf() Adapter {
	return &Ffuf{Base: newBase("ffuf", "-V")}
}

func (f *Ffuf) Invoke(ctx context.Context, spec models.StageSpec, target []string, targetType models.TargetType) models.ToolResult {
	path, err := f.resolveBinary()
	if err != nil {
		return binaryMissingResult(spec.Stage, f.binary)
	}

	hosts := target
	if targetType == models.TargetSingle {
		hosts = []string{strings.TrimSpace(strings.Join(target, ""))}
	} else {
		hosts = models.NormalizeTargets(target)
	}

	mode := spec.Mode.Normalize()
	var (
		allParsed []models.ParsedRecord
		stdout    strings.Builder
		stderr    strings.Builder
		lastExit  int
	)

	for _, host := range hosts {
		args := f.buildArgv(spec, host, mode)
		rr := run(ctx, path, args, spec.Timeout)
		stdout.WriteString(rr.stdout)
		stderr.WriteString(rr.stderr)
		lastExit = rr.exitCode
		if !rr.success {
			return unsuccessfulResult(spec.Stage, rr)
		}
		allParsed = append(allParsed, parseFfufOutput(rr.stdout, host, mode)...)
	}

	return models.ToolResult{
		Stage:    spec.Stage,
		Success:  true,
		ExitCode: lastExit,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Parsed:   allParsed,
	}
}

// buildArgv composes one host's argv, per spec.md §4.2's DNS
// brute-force and directory brute-force rows.
func (f *Ffuf) buildArgv(spec models.StageSpec, host string, mode models.ScanMode) []string {
	args := []string{"-json", "-w", spec.Wordlist}

	if mode == models.ScanModeSubdomain {
		args = append(args, "-u", "https://FUZZ."+host, "-H", "Host: FUZZ."+host)
	} else {
		args = append(args, "-u", "https://"+host+"/FUZZ", "-recursion", "-recursion-depth", "2")
	}

	args = append(args, headerFlags(spec.Headers)...)
	args = append(args, commonFlags("-rate", spec.RateLimit, "", nil)...)
	args = append(args, spec.ExtraArgv...)
	return args
}

// ffufResultLine matches ffuf -json's per-line "results" shape when
// -json is paired with streaming mode; each line is a standalone JSON
// object with a "input"/"url"/"host" set of keys depending on mode.
type ffufResultLine struct {
	Input map[string]string `json:"input"`
	URL   string            `json:"url"`
	Host  string            `json:"host"`
}

// parseFfufOutput decodes JSON-per-line output, falling back to
// {"path": line} when a line fails to parse as JSON, matching the
// Python original's fallback behavior.
func parseFfufOutput(stdout, host string, mode models.ScanMode) []models.ParsedRecord {
	var records []models.ParsedRecord
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry ffufResultLine
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			records = append(records, models.ParsedRecord{
				Tool:   "ffuf",
				Target: host,
				Fields: map[string]interface{}{"path": line},
			})
			continue
		}

		fields := map[string]interface{}{"url": entry.URL}
		if mode == models.ScanModeSubdomain {
			sub := entry.Host
			if sub == "" {
				if fuzz, ok := entry.Input["FUZZ"]; ok {
					sub = fuzz + "." + host
				}
			}
			if sub == "" {
				continue
			}
			fields["host"] = sub
		} else if entry.URL == "" {
			continue
		}

		records = append(records, models.ParsedRecord{Tool: "ffuf", Target: host, Fields: fields})
	}
	return records
}
