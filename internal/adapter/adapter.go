// Package adapter implements the Tool Adapter: a uniform per-tool wrapper
// that resolves a binary, builds its argv from a StageSpec and a target
// set, spawns it with a timeout, and parses its output into ParsedRecords.
package adapter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/bountyforge/bountyforge/internal/models"
)

// Adapter runs exactly one external tool once against a prepared target
// set and returns a normalized ToolResult. Implementations never share
// mutable state across invocations.
type Adapter interface {
	// Name is the adapter's registry key, also used as the ParsedRecord
	// "tool" tag and the availability-probe binary name.
	Name() string

	// Invoke runs the tool once. It never panics; all failure modes
	// documented in spec.md §4.1 are returned as an unsuccessful
	// ToolResult rather than an error return.
	Invoke(ctx context.Context, spec models.StageSpec, target []string, targetType models.TargetType) models.ToolResult

	// CheckAvailability resolves the binary and extracts its version,
	// per spec.md §4.5.
	CheckAvailability(ctx context.Context) AvailabilityStatus
}

// AvailabilityStatus is the per-adapter outcome of a version probe.
// Version is nil when Available is false, matching spec.md §4.5's
// {available: bool, version: string|null} contract.
type AvailabilityStatus struct {
	Available bool    `json:"available"`
	Version   *string `json:"version"`
}

// Factory constructs a fresh Adapter instance. Adapters are stateless
// across invocations, so a factory may just return a shared singleton,
// but the Registry always calls through Factory rather than caching one.
type Factory func() Adapter

// Base holds the fields and template-method helpers common to every
// concrete adapter: binary resolution, target preparation, common argv
// flags, and process execution with timeout.
type Base struct {
	binary        string
	versionFlag   string
	versionRegexp *versionExtractor
}

// newBase constructs a Base for a tool resolved as binary on PATH,
// probed for version with versionFlag (e.g. "--version" or "-version").
func newBase(binary, versionFlag string) Base {
	return Base{binary: binary, versionFlag: versionFlag, versionRegexp: newVersionExtractor()}
}

// Name returns the adapter's binary name.
func (b Base) Name() string { return b.binary }

// resolveBinary searches PATH for the adapter's binary.
func (b Base) resolveBinary() (string, error) {
	path, err := exec.LookPath(b.binary)
	if err != nil {
		return "", fmt.Errorf("binary missing: %s", b.binary)
	}
	return path, nil
}

// CheckAvailability runs `binary <versionFlag>` with a short timeout and
// extracts a MAJOR.MINOR[.PATCH] token from its combined output.
func (b Base) CheckAvailability(ctx context.Context) AvailabilityStatus {
	path, err := b.resolveBinary()
	if err != nil {
		return AvailabilityStatus{Available: false, Version: nil}
	}

	probeCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, path, b.versionFlag)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	_ = cmd.Run() // many tools exit non-zero on --version; ignore the error

	version := b.versionRegexp.extract(out.String())
	if version == "" {
		version = "unknown"
	}
	return AvailabilityStatus{Available: true, Version: &version}
}

// prepareTarget renders target according to targetType, per spec.md
// §4.1 step 1: single targets are stripped, multiple targets are
// comma-joined, file targets are passed through as a path.
func prepareTarget(target []string, targetType models.TargetType) (string, error) {
	switch targetType {
	case models.TargetSingle:
		if len(target) == 0 {
			return "", fmt.Errorf("single target requires exactly one value")
		}
		return strings.TrimSpace(target[0]), nil
	case models.TargetMultiple:
		return strings.Join(models.NormalizeTargets(target), ","), nil
	case models.TargetFile:
		if len(target) == 0 {
			return "", fmt.Errorf("file target requires a path")
		}
		return target[0], nil
	default:
		return "", fmt.Errorf("invalid target type: %s", targetType)
	}
}

// commonFlags appends the flags every adapter applies when supported:
// a rate-limit flag and a comma-joined exclude list, per spec.md §4.2's
// "Common flags" note.
func commonFlags(rateFlag string, rateLimit int, excludeFlag string, exclude []string) []string {
	var flags []string
	if rateFlag != "" && rateLimit > 0 {
		flags = append(flags, rateFlag, strconv.Itoa(rateLimit))
	}
	if excludeFlag != "" && len(exclude) > 0 {
		flags = append(flags, excludeFlag, strings.Join(exclude, ","))
	}
	return flags
}

// runResult is the raw outcome of spawning and waiting on a child
// process, before per-tool parsing.
type runResult struct {
	argv     []string
	exitCode int
	stdout   string
	stderr   string
	success  bool
	errMsg   string
}

// run spawns path+args under a timeout derived from spec.Timeout,
// capturing stdout/stderr, per spec.md §4.1 steps 2-5.
func run(ctx context.Context, path string, args []string, timeout time.Duration) runResult {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	argv := append([]string{path}, args...)
	err := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		return runResult{
			argv:    argv,
			stdout:  stdout.String(),
			stderr:  stderr.String(),
			success: false,
			errMsg:  "timeout",
		}
	}
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return runResult{
			argv:     argv,
			exitCode: exitCode,
			stdout:   stdout.String(),
			stderr:   stderr.String(),
			success:  false,
			errMsg:   strings.TrimSpace(stderr.String()),
		}
	}
	return runResult{
		argv:    argv,
		stdout:  stdout.String(),
		stderr:  stderr.String(),
		success: true,
	}
}

// unsuccessfulResult builds a ToolResult for any of the failure
// conditions in spec.md §4.1 (binary missing, timeout, non-zero exit).
func unsuccessfulResult(stage models.StageName, rr runResult) models.ToolResult {
	errMsg := rr.errMsg
	if errMsg == "" {
		errMsg = "execution failed"
	}
	return models.ToolResult{
		Stage:    stage,
		Success:  false,
		ExitCode: rr.exitCode,
		Stdout:   rr.stdout,
		Stderr:   rr.stderr,
		Error:    errMsg,
	}
}

// binaryMissingResult is the unsuccessful result used when the binary
// cannot be found on PATH, per spec.md §4.1's "binary not resolvable"
// error condition (fails fast, no spawn attempted).
func binaryMissingResult(stage models.StageName, binary string) models.ToolResult {
	return models.ToolResult{
		Stage:   stage,
		Success: false,
		Error:   fmt.Sprintf("binary missing: %s", binary),
	}
}
