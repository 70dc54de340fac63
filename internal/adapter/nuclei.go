package adapter

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	"github.com/bountyforge/bountyforge/internal/models"
)

// Nuclei wraps the template-based vulnerability engine. Terminal
// stage: its output is not projected into a further working target
// set, per spec.md §4.3.
type Nuclei struct {
	Base
}

// NewNuclei constructs a Nuclei adapter.
func NewNuclei() Adapter {
	return &Nuclei{Base: newBase("nuclei", "-version")}
}

func (n *Nuclei) Invoke(ctx context.Context, spec models.StageSpec, target []string, targetType models.TargetType) models.ToolResult {
	path, err := n.resolveBinary()
	if err != nil {
		return binaryMissingResult(spec.Stage, n.binary)
	}

	args := []string{"-silent", "-j", "-disable-update-check", "-fr"}
	if spec.TemplatesDir != "" {
		args = append(args, "-t", spec.TemplatesDir)
	}

	switch targetType {
	case models.TargetFile:
		prepared, perr := prepareTarget(target, targetType)
		if perr != nil {
			return unsuccessfulResult(spec.Stage, runResult{errMsg: perr.Error()})
		}
		args = append(args, "-l", prepared)
	default:
		prepared, perr := prepareTarget(target, models.TargetMultiple)
		if perr != nil {
			return unsuccessfulResult(spec.Stage, runResult{errMsg: perr.Error()})
		}
		args = append(args, "-u", prepared)
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
		Parsed:   parseNucleiOutput(rr.stdout),
	}
}

// nucleiLine is one JSON-per-line finding emitted by nuclei -j.
type nucleiLine struct {
	TemplateID string `json:"template-id"`
	Host       string `json:"host"`
	MatchedAt  string `json:"matched-at"`
	Info       struct {
		Name     string `json:"name"`
		Severity string `json:"severity"`
	} `json:"info"`
}

// parseNucleiOutput decodes JSON-per-line findings, skipping any line
// that fails to parse.
func parseNucleiOutput(stdout string) []models.ParsedRecord {
	var records []models.ParsedRecord
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry nucleiLine
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Host == "" {
			continue
		}
		records = append(records, models.ParsedRecord{
			Tool:   "nuclei",
			Target: entry.Host,
			Fields: map[string]interface{}{
				"template":  entry.TemplateID,
				"host":      entry.Host,
				"matched_at": entry.MatchedAt,
				"name":      entry.Info.Name,
				"severity":  entry.Info.Severity,
			},
		})
	}
	return records
}
