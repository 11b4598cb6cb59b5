package model

import (
	"fmt"
	"time"
)

// Kind is the media classification of a stored blob.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindImage, KindVideo}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Dir is the content store partition for the kind ("images", "videos").
func (k Kind) Dir() string {
	return string(k) + "s"
}

// MediaRecord is the persisted metadata row describing a stored blob.
// This is a pure domain model with no database-specific dependencies or tags.
type MediaRecord struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	FileURL   string    `json:"file_url"`
	FileType  string    `json:"file_type"`
	FileSize  string    `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UploadedFile describes a blob already written to the content store,
// as handed over by the upload middleware or the remote fetcher.
type UploadedFile struct {
	OriginalName string
	MimeType     string
	SizeBytes    int64
	StoredName   string
	// Kind is the partition the blob was written to.
	Kind Kind
}

// PublicPath is the retrieval path of a blob: /media/<kind>/<name>.
func PublicPath(kind, name string) string {
	return "/media/" + kind + "/" + name
}

// FormatSize renders bytes as megabytes with one decimal, e.g. "1.5 MB".
func FormatSize(bytes int64) string {
	return fmt.Sprintf("%.1f MB", float64(bytes)/1024/1024)
}
