package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNucleiOutput(t *testing.T) {
	raw := `{"template-id":"exposed-panel","host":"https://example.com","matched-at":"https://example.com/admin","info":{"name":"Exposed Admin Panel","severity":"medium"}}
not json
{"template-id":"cve-2021-1234","host":"","matched-at":"x"}
`
	records := parseNucleiOutput(raw)

	require := assert.New(t)
	require.Len(records, 1)
	require.Equal("exposed-panel", records[0].Field("template"))
	require.Equal("medium", records[0].Field("severity"))
}
