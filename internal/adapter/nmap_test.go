package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNmapOutput(t *testing.T) {
	raw := `Starting Nmap 7.94
Nmap scan report for h1 (10.0.0.1)
Host is up.
80/tcp   open  http
443/tcp  open  https
Nmap scan report for h2 (10.0.0.2)
22/tcp   open  ssh
`
	records := parseNmapOutput(raw)

	assert.Len(t, records, 3)
	assert.Equal(t, "h1", records[0].Field("host"))
	assert.Equal(t, "80/tcp", records[0].Field("port"))
	assert.Equal(t, "h1", records[1].Field("host"))
	assert.Equal(t, "443/tcp", records[1].Field("port"))
	assert.Equal(t, "h2", records[2].Field("host"))
	assert.Equal(t, "22/tcp", records[2].Field("port"))
}

func TestParseNmapOutput_NoHostsUp(t *testing.T) {
	records := parseNmapOutput("Nmap done: 1 IP address scanned\n")
	assert.Empty(t, records)
}
