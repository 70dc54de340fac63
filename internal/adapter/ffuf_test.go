package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bountyforge/bountyforge/internal/models"
)

func TestParseFfufOutput_SubdomainMode(t *testing.T) {
	raw := `{"input":{"FUZZ":"dev"},"url":"https://dev.example.com"}
{"host":"api.example.com","url":"https://api.example.com"}
not valid json
`
	records := parseFfufOutput(raw, "example.com", models.ScanModeSubdomain)

	assert.Len(t, records, 3)
	assert.Equal(t, "dev.example.com", records[0].Field("host"))
	assert.Equal(t, "api.example.com", records[1].Field("host"))
	assert.Equal(t, "not valid json", records[2].Field("path"))
}

func TestParseFfufOutput_DirectoryMode(t *testing.T) {
	raw := `{"url":"https://example.com/admin"}
{"url":""}
{"url":"https://example.com/backup"}
`
	records := parseFfufOutput(raw, "example.com", models.ScanModeDirectory)

	assert.Len(t, records, 2)
	assert.Equal(t, "https://example.com/admin", records[0].Field("url"))
	assert.Equal(t, "https://example.com/backup", records[1].Field("url"))
}

func TestFfufBuildArgv_SubdomainUsesHostHeader(t *testing.T) {
	f := &Ffuf{Base: newBase("ffuf", "-V")}
	spec := models.StageSpec{Wordlist: "/wl/subdomains.txt"}
	args := f.buildArgv(spec, "example.com", models.ScanModeSubdomain)

	assert.Contains(t, args, "Host: FUZZ.example.com")
	assert.Contains(t, args, "https://FUZZ.example.com")
}

func TestFfufBuildArgv_DirectoryUsesRecursion(t *testing.T) {
	f := &Ffuf{Base: newBase("ffuf", "-V")}
	spec := models.StageSpec{Wordlist: "/wl/dirs.txt"}
	args := f.buildArgv(spec, "example.com", models.ScanModeDirectory)

	assert.Contains(t, args, "-recursion")
	assert.Contains(t, args, "https://example.com/FUZZ")
}
