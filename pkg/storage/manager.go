package storage

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// knownExtensions is the set of URL path suffixes kept as-is when
// deriving an output filename. Anything else falls back to jpg.
var knownExtensions = map[string]bool{
	"jpe":  true,
	"jpeg": true,
	"jfif": true,
	"exif": true,
	"tiff": true,
	"gif":  true,
	"bmp":  true,
	"png":  true,
	"webp": true,
	"jpg":  true,
}

// DefaultExtension is used when the URL path carries no recognizable
// image extension.
const DefaultExtension = "jpg"

// Manager handles file storage operations for one output directory
type Manager struct {
	outputDir string
}

// NewManager creates a new storage manager rooted at outputDir. When
// forceReplace is set, an existing directory is removed first. The
// directory is created if absent.
func NewManager(outputDir string, forceReplace bool) (*Manager, error) {
	if forceReplace {
		if err := os.RemoveAll(outputDir); err != nil {
			return nil, fmt.Errorf("failed to clear output directory: %w", err)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{outputDir: outputDir}, nil
}

// SaveImage writes data to the named file inside the output directory,
// overwriting any existing file, and returns the full path. The write
// goes through a temporary file and an atomic rename.
func (m *Manager) SaveImage(name string, data []byte) (string, error) {
	filename := filepath.Join(m.outputDir, name)

	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image data: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to finalize image file: %w", err)
	}

	return filename, nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// FileExtension derives the output extension from an image URL's path.
// The query string is ignored, matching is case-insensitive, and any
// suffix outside the known image extension set maps to jpg.
func FileExtension(rawURL string) string {
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		p = parsed.Path
	}

	base := path.Base(p)
	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i]
	}

	i := strings.LastIndex(base, ".")
	if i < 0 || i == len(base)-1 {
		return DefaultExtension
	}

	ext := strings.ToLower(base[i+1:])
	if !knownExtensions[ext] {
		return DefaultExtension
	}
	return ext
}

// ImageFileName returns the output filename for the given download
// sequence number and source URL, e.g. Image_3.png.
func ImageFileName(sequence int64, rawURL string) string {
	return fmt.Sprintf("Image_%d.%s", sequence, FileExtension(rawURL))
}
