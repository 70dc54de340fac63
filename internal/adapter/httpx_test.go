package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHttpxOutput(t *testing.T) {
	raw := `{"url":"https://example.com","status_code":200,"title":"Example"}
{"url":"https://example.com/old","status_code":301,"title":""}
{"url":"https://example.com/missing","status_code":404,"title":""}
garbage line
`
	records := parseHttpxOutput(raw)

	require := assert.New(t)
	require.Len(records, 3)
	require.Equal(200, records[0].Fields["status"])
	require.Equal(301, records[1].Fields["status"])
	require.Equal(404, records[2].Fields["status"])
}
