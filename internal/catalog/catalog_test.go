package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan(t *testing.T) {
	shaderDir := t.TempDir()
	videoDir := t.TempDir()

	writeFile(t, filepath.Join(shaderDir, "plasma.frag"), "void main() {}")
	writeFile(t, filepath.Join(shaderDir, "tunnel.glsl"), "// tunnel")
	writeFile(t, filepath.Join(shaderDir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(videoDir, "music", "clip.mp4"), "mp4bytes")
	writeFile(t, filepath.Join(videoDir, "music", "cover.jpg"), "ignored")
	writeFile(t, filepath.Join(videoDir, "nature", "ocean.webm"), "webmbytes")
	writeFile(t, filepath.Join(videoDir, "loose.mp4"), "mp4bytes")

	sc := &Scanner{ShaderDir: shaderDir, VideoDir: videoDir}
	snap := sc.Scan()

	require.Len(t, snap.Shaders, 2)
	assert.Equal(t, "plasma", snap.Shaders[0].ID)
	assert.Equal(t, "void main() {}", snap.Shaders[0].Code)
	assert.Equal(t, "tunnel", snap.Shaders[1].Name)

	require.Len(t, snap.Videos, 3)
	assert.Equal(t, "loose.mp4", snap.Videos[0].ID)
	assert.Equal(t, "", snap.Videos[0].Category)
	assert.Equal(t, "music/clip.mp4", snap.Videos[1].ID)
	assert.Equal(t, "clip", snap.Videos[1].Name)
	assert.Equal(t, "music", snap.Videos[1].Category)
	assert.Equal(t, "/stream/mp4/music/clip.mp4", snap.Videos[1].URL)
	assert.Equal(t, "nature/ocean.webm", snap.Videos[2].ID)
}

func TestScanMissingRoots(t *testing.T) {
	sc := &Scanner{ShaderDir: "/does/not/exist", VideoDir: "/also/missing"}
	snap := sc.Scan()

	assert.NotNil(t, snap.Shaders)
	assert.NotNil(t, snap.Videos)
	assert.Empty(t, snap.Shaders)
	assert.Empty(t, snap.Videos)
}

func TestScanRescansEveryCall(t *testing.T) {
	videoDir := t.TempDir()
	sc := &Scanner{ShaderDir: t.TempDir(), VideoDir: videoDir}

	assert.Empty(t, sc.Scan().Videos)
	writeFile(t, filepath.Join(videoDir, "fresh.mp4"), "mp4bytes")
	assert.Len(t, sc.Scan().Videos, 1)
}
