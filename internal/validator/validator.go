// Package validator holds the media allow-lists and filename sanitization
// shared by the upload middleware and the remote fetcher.
package validator

import (
	"fmt"
	"mime"
	"path"
	"regexp"
	"slices"
	"strings"

	"mediaapi/internal/model"
)

// MaxFileNameLength is the default cap applied by SanitizeFileName.
const MaxFileNameLength = 255

// DefaultFileName replaces an empty file name hint.
const DefaultFileName = "media"

var (
	imageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "avif"}
	videoExtensions = []string{"mp4", "mov", "avi", "mkv", "webm"}

	imageMimeTypes = []string{
		"image/png",
		"image/jpg",
		"image/jpeg",
		"image/gif",
		"image/avif",
		"image/webp",
	}
	videoMimeTypes = []string{
		"video/mp4",
		"video/quicktime",
		"video/x-msvideo",
		"video/webm",
		"video/x-matroska",
		"video/x-flv",
		"video/x-ms-wmv",
		"video/mpeg",
	}

	// mimeExtensions maps a declared Content-Type to the extension used for the stored name.
	mimeExtensions = map[string]string{
		"image/jpeg":       "jpeg",
		"image/jpg":        "jpg",
		"image/pjpeg":      "jpg",
		"image/png":        "png",
		"image/gif":        "gif",
		"image/webp":       "webp",
		"image/avif":       "avif",
		"image/svg+xml":    "svg",
		"image/bmp":        "bmp",
		"image/tiff":       "tif",
		"video/mp4":        "mp4",
		"video/quicktime":  "mov",
		"video/x-msvideo":  "avi",
		"video/msvideo":    "avi",
		"video/avi":        "avi",
		"video/x-matroska": "mkv",
		"video/webm":       "webm",
		"video/x-flv":      "flv",
		"video/x-ms-wmv":   "wmv",
		"video/mpeg":       "mpeg",
		"audio/mpeg":       "mp3",
		"application/pdf":  "pdf",
		"application/json": "json",
		"text/html":        "html",
		"text/plain":       "txt",
	}

	// extensionTypes resolves the Content-Type served for a stored file.
	extensionTypes = map[string]string{
		"jpg":  "image/jpeg",
		"jpeg": "image/jpeg",
		"png":  "image/png",
		"gif":  "image/gif",
		"webp": "image/webp",
		"avif": "image/avif",
		"svg":  "image/svg+xml",
		"mp4":  "video/mp4",
		"mov":  "video/quicktime",
		"avi":  "video/x-msvideo",
		"mkv":  "video/x-matroska",
		"webm": "video/webm",
		"flv":  "video/x-flv",
		"wmv":  "video/x-ms-wmv",
		"mpeg": "video/mpeg",
		"mpg":  "video/mpeg",
	}

	unsafeFileNameChars = regexp.MustCompile(`[^A-Za-z0-9\-_.]`)
)

// InvalidFileTypeError rejects a multipart upload whose MIME type is not allowed.
type InvalidFileTypeError struct {
	MimeType string
}

func (e *InvalidFileTypeError) Error() string {
	return fmt.Sprintf("Invalid file type: %s", e.MimeType)
}

// ClassifyExtension maps an extension (with or without the dot) to its kind.
func ClassifyExtension(ext string) (model.Kind, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch {
	case slices.Contains(imageExtensions, ext):
		return model.KindImage, true
	case slices.Contains(videoExtensions, ext):
		return model.KindVideo, true
	}
	return "", false
}

// ClassifyMimeType maps a multipart MIME type to its kind using the upload allow-lists.
func ClassifyMimeType(mimeType string) (model.Kind, error) {
	switch {
	case slices.Contains(imageMimeTypes, mimeType):
		return model.KindImage, nil
	case slices.Contains(videoMimeTypes, mimeType):
		return model.KindVideo, nil
	}
	return "", &InvalidFileTypeError{MimeType: mimeType}
}

// SupportedExtensions is the image allow-list followed by the video allow-list.
func SupportedExtensions() []string {
	return append(append(make([]string, 0, len(imageExtensions)+len(videoExtensions)), imageExtensions...), videoExtensions...)
}

// ExtensionForContentType returns the extension for a Content-Type header value,
// ignoring parameters such as charset. It returns "" for unknown types.
func ExtensionForContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.Split(contentType, ";")[0])
	}
	return mimeExtensions[strings.ToLower(mediaType)]
}

// ContentTypeForName resolves the Content-Type of a stored file from its extension,
// returning fallback when the extension is unknown.
func ContentTypeForName(name, fallback string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	return fallback
}

// SanitizeFileName strips characters outside [A-Za-z0-9-_.] and shortens the
// result to maxLen bytes with FitFileName. An empty input yields DefaultFileName.
func SanitizeFileName(raw string, maxLen int) string {
	if raw == "" {
		raw = DefaultFileName
	}
	if maxLen <= 0 {
		maxLen = MaxFileNameLength
	}
	return FitFileName(unsafeFileNameChars.ReplaceAllString(raw, ""), maxLen)
}

// FitFileName cuts name to at most maxLen bytes. The stem is shortened first
// so the extension survives whenever it fits. name must be ASCII.
func FitFileName(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	ext := ""
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		ext = name[i:]
	}
	if len(ext) >= maxLen {
		return name[:maxLen]
	}
	return name[:maxLen-len(ext)] + ext
}
