package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bountyforge/bountyforge/internal/models"
)

func rec(fields map[string]interface{}) models.ParsedRecord {
	return models.ParsedRecord{Fields: fields}
}

func TestUnionHosts(t *testing.T) {
	result := models.ToolResult{Parsed: []models.ParsedRecord{
		rec(map[string]interface{}{"host": "www.example.com"}),
		rec(map[string]interface{}{"host": "api.example.com"}),
		rec(map[string]interface{}{"host": "www.example.com"}), // duplicate
	}}
	next := unionHosts([]string{"example.com"}, result)
	assert.Equal(t, []string{"example.com", "www.example.com", "api.example.com"}, next)
}

func TestReplaceWithOpenPorts(t *testing.T) {
	result := models.ToolResult{Parsed: []models.ParsedRecord{
		rec(map[string]interface{}{"host": "h1", "port": "80/tcp"}),
		rec(map[string]interface{}{"host": "h1", "port": "443/tcp"}),
		rec(map[string]interface{}{"host": "h2", "port": "22/tcp"}),
	}}
	next := replaceWithOpenPorts([]string{"h1", "h2"}, result)
	assert.Equal(t, []string{"h1:80", "h1:443", "h2:22"}, next)
}

func TestReplaceWithLiveURLs_FiltersStatusGTE400(t *testing.T) {
	result := models.ToolResult{Parsed: []models.ParsedRecord{
		rec(map[string]interface{}{"url": "https://a", "status": 200}),
		rec(map[string]interface{}{"url": "https://b", "status": 301}),
		rec(map[string]interface{}{"url": "https://c", "status": 404}),
		rec(map[string]interface{}{"url": "https://d", "status": 500}),
	}}
	next := replaceWithLiveURLs(nil, result)
	assert.Equal(t, []string{"https://a", "https://b"}, next)
}

func TestUnionURLs(t *testing.T) {
	result := models.ToolResult{Parsed: []models.ParsedRecord{
		rec(map[string]interface{}{"url": "https://example.com/admin"}),
		rec(map[string]interface{}{"url": "https://example.com/backup"}),
	}}
	next := unionURLs([]string{"https://example.com"}, result)
	assert.Equal(t, []string{"https://example.com", "https://example.com/admin", "https://example.com/backup"}, next)
}

func TestTerminalProjection_LeavesWorkingSetUnchanged(t *testing.T) {
	current := []string{"https://example.com/admin"}
	next := terminalProjection(current, models.ToolResult{Parsed: []models.ParsedRecord{
		rec(map[string]interface{}{"template": "exposed-panel"}),
	}})
	assert.Equal(t, current, next)
}

func TestProjectionPurity_DeterministicInResultAlone(t *testing.T) {
	result := models.ToolResult{Parsed: []models.ParsedRecord{
		rec(map[string]interface{}{"host": "a.example.com"}),
	}}
	first := ProjectionFor(models.StageSubdomainEnum)([]string{"example.com"}, result)
	second := ProjectionFor(models.StageSubdomainEnum)([]string{"example.com"}, result)
	assert.Equal(t, first, second)
}
