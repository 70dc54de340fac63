package adapter

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	"github.com/bountyforge/bountyforge/internal/models"
)

// Httpx wraps the HTTP prober binary. Mode selects output surface:
// recon adds title/status/cdn, live reports status only, per spec.md
// §4.2's http-probe row.
type Httpx struct {
	Base
}

// NewHttpx constructs an Httpx adapter.
func NewHttpx() Adapter {
	return &Httpx{Base: newBase("httpx", "-version")}
}

func (h *Httpx) Invoke(ctx context.Context, spec models.StageSpec, target []string, targetType models.TargetType) models.ToolResult {
	path, err := h.resolveBinary()
	if err != nil {
		return binaryMissingResult(spec.Stage, h.binary)
	}

	args := []string{"-silent", "-json", "-status-code"}
	if spec.Mode.Normalize() == models.ScanModeRecon {
		args = append(args, "-title", "-cdn")
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

	args = append(args, headerFlags(spec.Headers)...)
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
		Parsed:   parseHttpxOutput(rr.stdout),
	}
}

// httpxLine is one JSON-per-line record emitted by httpx -json.
type httpxLine struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Title      string `json:"title"`
	CDNName    string `json:"cdn_name"`
}

// parseHttpxOutput decodes JSON-per-line output, skipping any line
// that fails to parse.
func parseHttpxOutput(stdout string) []models.ParsedRecord {
	var records []models.ParsedRecord
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry httpxLine
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.URL == "" {
			continue
		}
		records = append(records, models.ParsedRecord{
			Tool:   "httpx",
			Target: entry.URL,
			Fields: map[string]interface{}{
				"url":    entry.URL,
				"status": entry.StatusCode,
				"title":  entry.Title,
				"cdn":    entry.CDNName,
			},
		})
	}
	return records
}
