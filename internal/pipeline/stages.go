// Package pipeline implements the Pipeline Engine: it runs the stages
// a job selected, in the fixed canonical order, chaining stage N's
// parsed output into stage N+1's working target set, per spec.md §4.3.
package pipeline

import (
	"strconv"

	"github.com/bountyforge/bountyforge/internal/models"
)

// Projection maps a stage's ToolResult (and the previous working set)
// to the next working target set. Projections are pure: deterministic
// in the ToolResult alone, per spec.md §8's "Projection purity"
// property.
type Projection func(current []string, result models.ToolResult) []string

// projections is the stage→Projection table from spec.md §4.3.
var projections = map[models.StageName]Projection{
	models.StageSubdomainEnum: unionHosts,
	models.StageDNSBruteforce: unionHosts,
	models.StagePortScan:      replaceWithOpenPorts,
	models.StageHTTPProbe:     replaceWithLiveURLs,
	models.StageDirBruteforce: unionURLs,
	models.StageTemplateScan:  terminalProjection,
}

// ProjectionFor returns the Projection for stage, or a no-op projection
// if the stage is unrecognized (should not happen for canonical stages).
func ProjectionFor(stage models.StageName) Projection {
	if p, ok := projections[stage]; ok {
		return p
	}
	return terminalProjection
}

// unionHosts implements "union(current, all parsed host fields)",
// used after subdomain enumeration and DNS brute-force.
func unionHosts(current []string, result models.ToolResult) []string {
	merged := append([]string{}, current...)
	for _, rec := range result.Parsed {
		if host := rec.Field("host"); host != "" {
			merged = append(merged, host)
		}
	}
	return models.NormalizeTargets(merged)
}

// unionURLs implements "union(current, all parsed url fields)", used
// after directory brute-force.
func unionURLs(current []string, result models.ToolResult) []string {
	merged := append([]string{}, current...)
	for _, rec := range result.Parsed {
		if url := rec.Field("url"); url != "" {
			merged = append(merged, url)
		}
	}
	return models.NormalizeTargets(merged)
}

// replaceWithOpenPorts implements "replace with {host|ip}:{port} for
// every parsed open port", used after the port scan.
func replaceWithOpenPorts(_ []string, result models.ToolResult) []string {
	var next []string
	for _, rec := range result.Parsed {
		host := rec.Field("host")
		port := rec.Field("port")
		if host == "" || port == "" {
			continue
		}
		// port carries "80/tcp"; strip the protocol suffix.
		proto := ""
		for i, c := range port {
			if c == '/' {
				proto = port[i:]
				port = port[:i]
				break
			}
		}
		_ = proto
		next = append(next, host+":"+port)
	}
	return models.NormalizeTargets(next)
}

// replaceWithLiveURLs implements "replace with url of every record
// whose status is < 400", used after the HTTP probe.
func replaceWithLiveURLs(_ []string, result models.ToolResult) []string {
	var next []string
	for _, rec := range result.Parsed {
		status, ok := rec.Fields["status"]
		if !ok {
			continue
		}
		code, ok := toInt(status)
		if !ok || code >= 400 {
			continue
		}
		if url := rec.Field("url"); url != "" {
			next = append(next, url)
		}
	}
	return models.NormalizeTargets(next)
}

// terminalProjection implements the template-scan stage's "no further
// projection" rule: the working set is unaffected.
func terminalProjection(current []string, _ models.ToolResult) []string {
	return current
}

// toInt coerces a status field (which may arrive as int, float64 from
// JSON decoding, or a numeric string) into an int.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}
