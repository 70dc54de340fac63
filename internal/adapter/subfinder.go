package adapter

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	"github.com/bountyforge/bountyforge/internal/models"
)

// Subfinder wraps the subdomain enumerator binary. Always silent,
// recursive, JSON output, per spec.md §4.2's subdomain-enumeration row.
type Subfinder struct {
	Base
}

// NewSubfinder constructs a Subfinder adapter.
func NewSubfinder() Adapter {
	return &Subfinder{Base: newBase("subfinder", "-version")}
}

func (s *Subfinder) Invoke(ctx context.Context, spec models.StageSpec, target []string, targetType models.TargetType) models.ToolResult {
	path, err := s.resolveBinary()
	if err != nil {
		return binaryMissingResult(spec.Stage, s.binary)
	}

	args := []string{"-silent", "-all", "-recursive", "-json", "-disable-update-check"}
	switch targetType {
	case models.TargetFile:
		prepared, perr := prepareTarget(target, targetType)
		if perr != nil {
			return unsuccessfulResult(spec.Stage, runResult{errMsg: perr.Error()})
		}
		args = append(args, "-dL", prepared)
	default:
		prepared, perr := prepareTarget(target, models.TargetMultiple)
		if perr != nil {
			return unsuccessfulResult(spec.Stage, runResult{errMsg: perr.Error()})
		}
		args = append(args, "-d", prepared)
	}
	args = append(args, commonFlags("-rate-limit", spec.RateLimit, "-exclude-hosts", spec.Exclude)...)
	args = append(args, spec.ExtraArgv...)

	rr := run(ctx, path, args, spec.Timeout)
	if !rr.success {
		return unsuccessfulResult(spec.Stage, rr)
	}
	return models.ToolResult{
		Stage:    spec.Stage,
		Success:  true,
		ExitCode: 0,
		Stdout:   rr.stdout,
		Stderr:   rr.stderr,
		Parsed:   parseSubfinderOutput(rr.stdout),
	}
}

// subfinderLine is one JSON-per-line record emitted by subfinder -json.
type subfinderLine struct {
	Host   string `json:"host"`
	Input  string `json:"input"`
	Source string `json:"source"`
}

// parseSubfinderOutput decodes JSON-per-line output, skipping any line
// that fails to parse rather than failing the whole stage, per spec.md
// §4.1's "parse failure on any line" error condition.
func parseSubfinderOutput(stdout string) []models.ParsedRecord {
	var records []models.ParsedRecord
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry subfinderLine
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Host == "" {
			continue
		}
		records = append(records, models.ParsedRecord{
			Tool:   "subfinder",
			Target: entry.Host,
			Fields: map[string]interface{}{
				"host":   entry.Host,
				"source": entry.Source,
			},
		})
	}
	return records
}
