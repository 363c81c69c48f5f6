// Package storage provides file management for downloaded images.
//
// The storage package handles:
//   - Creating (and optionally clearing) the output directory
//   - Saving image bytes with atomic write operations
//   - Deriving output filenames and extensions from image URLs
//
// The Manager type is the primary interface for storage operations.
// Files are written through a temporary file and renamed into place,
// so concurrent writers targeting distinct names never observe a
// partially written image. Same-named files are overwritten silently.
//
// Usage:
//
//	manager, err := storage.NewManager("dataset/dog", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	name := storage.ImageFileName(1, "https://example.com/pic.PNG?x=1")
//	path, err := manager.SaveImage(name, data)
package storage
