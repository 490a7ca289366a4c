package upload

import (
	"mime"
	"path/filepath"
	"strings"
)

const defaultContentType = "application/octet-stream"

// extensionTypes pins the common media extensions so detection does not depend on the
// host's mime.types files.
var extensionTypes = map[string]string{
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".heic": "image/heic",
	".ico":  "image/x-icon",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".mov":  "video/quicktime",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".csv":  "text/csv",
	".txt":  "text/plain",
	".json": "application/json",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// DetectContentType classifies a file by its extension only.
func DetectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return defaultContentType
	}

	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}

	if ct := mime.TypeByExtension(ext); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return mediaType
		}
	}

	return defaultContentType
}

// IsImage reports whether a content type should be registered as an image resource.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
