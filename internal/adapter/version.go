package adapter

import (
	"regexp"
	"sort"
)

// versionExtractor pulls a MAJOR.MINOR[.PATCH] token out of a tool's
// --version output, per spec.md §4.5.
type versionExtractor struct {
	re *regexp.Regexp
}

func newVersionExtractor() *versionExtractor {
	return &versionExtractor{re: regexp.MustCompile(`\d+\.\d+(\.\d+)?`)}
}

func (v *versionExtractor) extract(output string) string {
	return v.re.FindString(output)
}

// headerFlags renders a header map as repeated `-H "key: value"` argv
// pairs, matching the Python original's `_prepare_headers`.
func headerFlags(headers map[string]string) []string {
	if len(headers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flags := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		flags = append(flags, "-H", k+": "+headers[k])
	}
	return flags
}
