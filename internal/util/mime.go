package util

import (
	"mime"
	"path/filepath"
)

// ContentTypeFor maps a filename to the Content-Type served for it, falling
// back to a generic byte stream for unknown extensions.
func ContentTypeFor(filename string) string {
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		return "application/octet-stream"
	}

	return mimeType
}
