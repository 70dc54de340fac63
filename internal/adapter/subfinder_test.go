package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSubfinderOutput(t *testing.T) {
	raw := `{"host":"www.example.com","input":"example.com","source":"crtsh"}
{"host":"api.example.com","input":"example.com","source":"virustotal"}
not json, should be skipped
{"host":"","input":"example.com","source":"dns"}
`
	records := parseSubfinderOutput(raw)

	require := assert.New(t)
	require.Len(records, 2)
	require.Equal("www.example.com", records[0].Field("host"))
	require.Equal("api.example.com", records[1].Field("host"))
	require.Equal("subfinder", records[0].Tool)
}

func TestParseSubfinderOutput_Empty(t *testing.T) {
	records := parseSubfinderOutput("")
	assert.Empty(t, records)
}
