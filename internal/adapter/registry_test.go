package adapter

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ListIsSortedAndCaseInsensitive(t *testing.T) {
	r := Default()

	names := r.List()
	assert.Equal(t, []string{"ffuf", "httpx", "nmap", "nuclei", "subfinder"}, names)

	_, ok := r.Get("NMAP")
	assert.True(t, ok)
	_, ok = r.Get("does-not-exist")
	assert.False(t, ok)
}

// writeFakeBinary drops an executable script named binName into dir that
// prints a recognizable version string and exits 0.
func writeFakeBinary(t *testing.T, dir, binName, versionOutput string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binary harness is POSIX-shell only")
	}
	path := filepath.Join(dir, binName)
	script := "#!/bin/sh\necho '" + versionOutput + "'\nexit 0\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestRegistry_CheckAvailability_FlipsWhenBinaryAppears(t *testing.T) {
	dir := t.TempDir()
	writeFakeBinary(t, dir, "subfinder", "subfinder version v2.6.3")

	originalPath := os.Getenv("PATH")

	r := New(map[string]Factory{"subfinder": func() Adapter { return NewSubfinder() }})

	// Binary absent from PATH: unavailable.
	t.Setenv("PATH", "")
	statuses := r.CheckAvailability(context.Background())
	assert.False(t, statuses["subfinder"].Available)
	assert.Nil(t, statuses["subfinder"].Version)

	// Binary present: available with extracted version.
	t.Setenv("PATH", dir+string(os.PathListSeparator)+originalPath)
	statuses = r.CheckAvailability(context.Background())
	assert.True(t, statuses["subfinder"].Available)
	require.NotNil(t, statuses["subfinder"].Version)
	assert.Equal(t, "2.6.3", *statuses["subfinder"].Version)
}
