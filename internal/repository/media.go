// Package repository contains the metadata store abstraction for media records.
// Implementations live in subpackages (postgres, mongo).
package repository

import (
	"context"

	"mediaapi/internal/model"
)

// MediaRepository defines data access for media records. No business logic here.
type MediaRepository interface {
	// Create inserts a new record. The store sets created/updated timestamps
	// and returns the record as persisted.
	Create(ctx context.Context, rec *model.MediaRecord) (*model.MediaRecord, error)

	// FindByKind returns every record whose file type equals kind, newest first.
	// An empty result is not an error.
	FindByKind(ctx context.Context, kind model.Kind) ([]model.MediaRecord, error)
}
