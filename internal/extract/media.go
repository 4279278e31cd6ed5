package extract

import (
	"path"
	"strings"
)

// DefaultMediaType is used when a filename carries no recognized extension.
// Treating unknown uploads as plain text keeps the extraction path usable for
// logs, notes, and other extensionless files.
const DefaultMediaType = "text/plain"

// mediaTypesByExtension maps lowercase filename extensions to the MIME types
// the extraction model accepts.
var mediaTypesByExtension = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".htm":  "text/html",
	".csv":  "text/csv",
	".json": "application/json",
	".xml":  "application/xml",
	".rtf":  "application/rtf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// InferMediaType returns the best-effort MIME type for a document filename.
// Explicit caller-supplied media types take precedence over this inference;
// it is the fallback when an upload arrives without one.
func InferMediaType(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if mt, ok := mediaTypesByExtension[ext]; ok {
		return mt
	}
	return DefaultMediaType
}

// IsSupportedMediaType reports whether the given MIME type is one the
// extraction model accepts.
func IsSupportedMediaType(mediaType string) bool {
	for _, mt := range mediaTypesByExtension {
		if mt == mediaType {
			return true
		}
	}
	return false
}
