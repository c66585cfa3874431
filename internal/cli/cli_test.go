package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filehub/internal/analytics"
	"filehub/internal/core"
	"filehub/internal/remote"
	"filehub/internal/server/api"
	"filehub/internal/server/config"
	"filehub/internal/server/database"
	"filehub/internal/server/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) string {
	t.Helper()
	repo := database.NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{RateLimitRPS: 1000, RateLimitBurst: 1000}
	srv := httptest.NewServer(api.SetupRouter(ctx, api.NewHandler(service.NewFileService(repo, 1<<30), repo), cfg))
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, server string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

func importMedia(t *testing.T, server string) {
	t.Helper()
	root := writeFiles(t, map[string]string{
		"media/a.txt":     strings.Repeat("a", 10),
		"media/b.png":     strings.Repeat("b", 300),
		"media/sub/c.mp3": strings.Repeat("c", 50),
	})
	out, _, err := run(t, server, "import", filepath.Join(root, "media"))
	require.NoError(t, err)
	assert.Contains(t, out, "3 imported, 0 failed")
	assert.Contains(t, out, "/media/sub/c.mp3")
}

func serverFiles(t *testing.T, server string) map[string]core.File {
	t.Helper()
	files, err := remote.NewClient(server).ListFiles(context.Background())
	require.NoError(t, err)
	byName := make(map[string]core.File, len(files))
	for _, f := range files {
		byName[f.Name] = f
	}
	return byName
}

func TestImportAndList(t *testing.T) {
	server := startServer(t)
	importMedia(t, server)

	files := serverFiles(t, server)
	require.Len(t, files, 3)
	assert.Equal(t, "/media/sub", files["c.mp3"].Path)
	assert.Equal(t, core.KindAudio, files["c.mp3"].Kind)
	assert.NotEmpty(t, files["b.png"].Checksum)

	t.Run("sorted by size", func(t *testing.T) {
		out, _, err := run(t, server, "ls", "--sort", "size", "--asc")
		require.NoError(t, err)
		a, c, b := strings.Index(out, "a.txt"), strings.Index(out, "c.mp3"), strings.Index(out, "b.png")
		require.True(t, a >= 0 && b >= 0 && c >= 0, out)
		assert.Less(t, a, c)
		assert.Less(t, c, b)
		assert.Contains(t, out, "3 of 3 files")
	})

	t.Run("filter and search", func(t *testing.T) {
		out, _, err := run(t, server, "ls", "--filter", "image")
		require.NoError(t, err)
		assert.Contains(t, out, "b.png")
		assert.NotContains(t, out, "a.txt")
		assert.Contains(t, out, "1 of 3 files")

		out, _, err = run(t, server, "ls", "-s", "MP3")
		require.NoError(t, err)
		assert.Contains(t, out, "c.mp3")
		assert.Contains(t, out, "1 of 3 files")
	})

	t.Run("folder", func(t *testing.T) {
		out, _, err := run(t, server, "ls", "--folder", "/media")
		require.NoError(t, err)
		assert.Contains(t, out, "In / > media\n")
		assert.Contains(t, out, "2 of 3 files")
	})

	t.Run("bad flags", func(t *testing.T) {
		_, _, err := run(t, server, "ls", "--filter", "spreadsheets")
		require.ErrorIs(t, err, core.ErrInvalid)
		_, _, err = run(t, server, "ls", "--sort", "colour")
		require.ErrorIs(t, err, core.ErrInvalid)
	})
}

func TestStats(t *testing.T) {
	server := startServer(t)
	importMedia(t, server)

	out, _, err := run(t, server, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Used:     360 B of 1.0 GB")
	assert.Contains(t, out, "Files:    3 in 2 folders")
	assert.Contains(t, out, "Average:  120 B per file")
	assert.Contains(t, out, "Largest:  b.png (300 B)")
	assert.Contains(t, out, "Recent:   3 uploads in the last 7 days")
	assert.Contains(t, out, "image")

	out, _, err = run(t, server, "stats", "--json")
	require.NoError(t, err)
	var snap analytics.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, int64(360), snap.Used)
	assert.Equal(t, analytics.Usage{Files: 1, Bytes: 300}, snap.ByKind[core.KindImage])
	require.NotNil(t, snap.Highlights.Largest)
	assert.Equal(t, "b.png", snap.Highlights.Largest.Name)
	assert.Len(t, snap.Highlights.RecentUploads, 3)
}

func TestShareAndRemove(t *testing.T) {
	server := startServer(t)
	importMedia(t, server)
	files := serverFiles(t, server)

	out, _, err := run(t, server, "share", files["b.png"].ID[:8], "--access", "public")
	require.NoError(t, err)
	assert.Contains(t, out, "b.png is now public")

	_, _, err = run(t, server, "share", files["a.txt"].ID, "-a", "view", "-p", "pw")
	require.NoError(t, err)

	after := serverFiles(t, server)
	assert.True(t, after["b.png"].Shared)
	assert.Equal(t, core.AccessView, after["a.txt"].Access)

	out, _, err = run(t, server, "rm", files["a.txt"].ID, files["c.mp3"].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 files")

	after = serverFiles(t, server)
	assert.Len(t, after, 1)
	assert.Contains(t, after, "b.png")

	_, _, err = run(t, server, "rm", "does-not-exist")
	assert.ErrorContains(t, err, "no file with id")
}

func TestImportErrors(t *testing.T) {
	server := startServer(t)

	_, _, err := run(t, server, "import", filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, core.ErrInvalid)

	root := writeFiles(t, map[string]string{"a.txt": "a"})
	_, _, err = run(t, "http://127.0.0.1:1", "--timeout", "2s", "import", filepath.Join(root, "a.txt"))
	assert.ErrorContains(t, err, "failed to reach server")
}
