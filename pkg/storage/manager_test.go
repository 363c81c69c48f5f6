package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")

	m, err := NewManager(dir, false)
	require.NoError(t, err)
	assert.Equal(t, dir, m.OutputDir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewManagerForceReplace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.MkdirAll(dir, 0755))

	stale := filepath.Join(dir, "Image_1.jpg")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	_, err := NewManager(dir, true)
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale file should be gone after force replace")
}

func TestNewManagerKeepsExistingFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.MkdirAll(dir, 0755))

	existing := filepath.Join(dir, "Image_1.jpg")
	require.NoError(t, os.WriteFile(existing, []byte("keep"), 0644))

	_, err := NewManager(dir, false)
	require.NoError(t, err)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, []byte("keep"), data)
}

func TestSaveImage(t *testing.T) {
	m, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	path, err := m.SaveImage("Image_1.jpg", payload)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	// No temp file left behind.
	entries, err := os.ReadDir(m.OutputDir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveImageOverwrites(t *testing.T) {
	m, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	_, err = m.SaveImage("Image_1.jpg", []byte("first"))
	require.NoError(t, err)

	path, err := m.SaveImage("Image_1.jpg", []byte("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/images/pic.PNG?x=1", "png"},
		{"https://example.com/images/pic.jpeg", "jpeg"},
		{"https://example.com/images/pic.unknownext", "jpg"},
		{"https://example.com/images/noextension", "jpg"},
		{"https://example.com/images/pic.WEBP", "webp"},
		{"https://example.com/pic.jfif", "jfif"},
		{"https://example.com/pic.gif?cache=bust&size=large", "gif"},
		{"https://example.com/", "jpg"},
		{"https://example.com/pic.", "jpg"},
		{"https://example.com/dir.d/file", "jpg"},
		{"://not a url at all", "jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, FileExtension(tt.url))
		})
	}
}

func TestImageFileName(t *testing.T) {
	assert.Equal(t, "Image_1.png", ImageFileName(1, "https://example.com/a.png"))
	assert.Equal(t, "Image_42.jpg", ImageFileName(42, "https://example.com/mystery"))
}
