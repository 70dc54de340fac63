package adapter

import (
	"bufio"
	"context"
	"regexp"
	"strings"

	"github.com/bountyforge/bountyforge/internal/models"
)

// Nmap wraps the port scanner binary. Mode selects timing/detection
// depth: default is fast with version probe, aggressive adds OS/script
// detection, full scans all ports, per spec.md §4.2's port-scan row.
type Nmap struct {
	Base
}

// NewNmap constructs an Nmap adapter.
func NewNmap() Adapter {
	return &Nmap{Base: newBase("nmap", "-V")}
}

func (n *Nmap) Invoke(ctx context.Context, spec models.StageSpec, target []string, targetType models.TargetType) models.ToolResult {
	path, err := n.resolveBinary()
	if err != nil {
		return binaryMissingResult(spec.Stage, n.binary)
	}

	prepared, perr := prepareTarget(target, models.TargetMultiple)
	if perr != nil {
		return unsuccessfulResult(spec.Stage, runResult{errMsg: perr.Error()})
	}

	args := []string{"-Pn"}
	switch spec.Mode.Normalize() {
	case models.ScanModeAggressive:
		args = append(args, "-A", "-sV")
	case models.ScanModeFull:
		args = append(args, "-p-", "-sV")
	default:
		args = append(args, "-T4", "-sV")
	}
	args = append(args, commonFlags("", 0, "--exclude", spec.Exclude)...)
	args = append(args, spec.ExtraArgv...)
	args = append(args, strings.Split(prepared, ",")...)

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
		Parsed:   parseNmapOutput(rr.stdout),
	}
}

// nmapPortLine matches a port line of nmap's normal (plain-text) output:
//   80/tcp   open  http
var nmapPortLine = regexp.MustCompile(`^(\d+)/(tcp|udp)\s+open\s+(\S+)`)

var nmapHostLine = regexp.MustCompile(`^Nmap scan report for (\S+)`)

// parseNmapOutput scans plain nmap output for "Nmap scan report for
// <host>" headers followed by "<port>/tcp open <service>" lines,
// skipping any line it cannot interpret.
func parseNmapOutput(stdout string) []models.ParsedRecord {
	var records []models.ParsedRecord
	currentHost := ""
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	for scanner.Scan() {
		line := scanner.Text()
		if m := nmapHostLine.FindStringSubmatch(line); m != nil {
			currentHost = strings.Trim(m[1], "()")
			continue
		}
		if m := nmapPortLine.FindStringSubmatch(line); m != nil && currentHost != "" {
			records = append(records, models.ParsedRecord{
				Tool:   "nmap",
				Target: currentHost,
				Fields: map[string]interface{}{
					"host":    currentHost,
					"port":    m[1] + "/" + m[2],
					"service": m[3],
				},
			})
		}
	}
	return records
}
