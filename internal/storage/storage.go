package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"mediaapi/internal/model"
)

// Package storage contains the content store abstraction for media blobs.
// Blobs are partitioned by kind into flat "images" and "videos" directories (or key prefixes).

var (
	// ErrNotExist is returned when a blob is absent from the store.
	ErrNotExist = errors.New("blob does not exist")
	// ErrExist is returned when a write would overwrite an existing blob.
	ErrExist = errors.New("blob already exists")
)

// PutObjectOptions define optional parameters for writing blobs.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored blob.
type ObjectInfo struct {
	Kind         model.Kind
	Name         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Object is an open blob. Seek positions the stream for byte-range reads.
type Object interface {
	io.Reader
	io.Seeker
	io.Closer
}

// Store is the content store for media blobs.
// Implementations must stream: no method may buffer a whole blob in memory.
type Store interface {
	// Put writes r to <kind dir>/<name>. It never overwrites an existing blob.
	// The returned size is the number of bytes durable in the store.
	Put(ctx context.Context, kind model.Kind, name string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Open returns the blob positioned at offset 0 alongside its info.
	Open(ctx context.Context, kind model.Kind, name string) (Object, ObjectInfo, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, kind model.Kind, name string) error
}
