// Package sniff identifies image data by its magic-number signature.
//
// The check is deliberately minimal: it answers "is this one of the
// image formats we save" and nothing else. Bodies that decode as HTML
// error pages, tracking pixels disguised behind redirects, and
// truncated garbage all fail it.
package sniff

import "bytes"

// Format names returned by Detect.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatGIF  = "gif"
	FormatWebP = "webp"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
)

// Detect returns the image format of data and whether the signature
// matched any known format.
func Detect(data []byte) (string, bool) {
	switch {
	case isJPEG(data):
		return FormatJPEG, true
	case isPNG(data):
		return FormatPNG, true
	case isGIF(data):
		return FormatGIF, true
	case isWebP(data):
		return FormatWebP, true
	case isBMP(data):
		return FormatBMP, true
	case isTIFF(data):
		return FormatTIFF, true
	default:
		return "", false
	}
}

// IsImage reports whether data carries a recognized image signature.
func IsImage(data []byte) bool {
	_, ok := Detect(data)
	return ok
}

func isJPEG(data []byte) bool {
	// SOI marker; covers JFIF, Exif and bare JPEG streams.
	return len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF})
}

func isPNG(data []byte) bool {
	return len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'})
}

func isGIF(data []byte) bool {
	return len(data) >= 6 &&
		(bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a")))
}

func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WEBP"))
}

func isBMP(data []byte) bool {
	return len(data) >= 2 && data[0] == 'B' && data[1] == 'M'
}

func isTIFF(data []byte) bool {
	return len(data) >= 4 &&
		(bytes.Equal(data[:4], []byte{'I', 'I', 0x2A, 0x00}) ||
			bytes.Equal(data[:4], []byte{'M', 'M', 0x00, 0x2A}))
}
