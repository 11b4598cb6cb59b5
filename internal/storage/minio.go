package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"mediaapi/internal/config"
	"mediaapi/internal/model"
)

// minioPartSize bounds the memory minio-go buffers per multipart part when the
// blob size is unknown upfront (remote fetches without Content-Length).
const minioPartSize = 16 << 20

// minioStorage implements the Store interface using an S3-compatible backend (MinIO, AWS S3, etc.).
// Blobs live under "<kind>s/<name>" keys. It is safe for concurrent use by multiple goroutines.
type minioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIO creates a new S3-compatible store backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(cfg config.MinIOConfig) (Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &minioStorage{client: cli, bucket: cfg.Bucket}, nil
}

func objectKey(kind model.Kind, name string) string {
	return path.Join(kind.Dir(), name)
}

// Put streams r into the bucket. The size is unknown, so minio-go uploads in parts.
func (m *minioStorage) Put(ctx context.Context, kind model.Kind, name string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	key := objectKey(kind, name)

	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err == nil {
		return ObjectInfo{}, fmt.Errorf("%w: %s", ErrExist, name)
	} else if !isNoSuchKey(err) {
		return ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}

	info, err := m.client.PutObject(ctx, m.bucket, key, r, -1, minio.PutObjectOptions{
		ContentType:  opt.ContentType,
		UserMetadata: opt.Metadata,
		PartSize:     minioPartSize,
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("put object: %w", err)
	}
	return ObjectInfo{
		Kind:         kind,
		Name:         name,
		Size:         info.Size,
		ContentType:  opt.ContentType,
		LastModified: time.Now(), // MinIO UploadInfo doesn't carry LastModified
	}, nil
}

// Open returns the object as a seekable stream; range reads seek before reading.
func (m *minioStorage) Open(ctx context.Context, kind model.Kind, name string) (Object, ObjectInfo, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectKey(kind, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	// Stat populates info without reading content into memory.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		if isNoSuchKey(err) {
			return nil, ObjectInfo{}, ErrNotExist
		}
		return nil, ObjectInfo{}, err
	}
	return obj, ObjectInfo{
		Kind:         kind,
		Name:         name,
		Size:         st.Size,
		ContentType:  st.ContentType,
		LastModified: st.LastModified,
	}, nil
}

// Delete removes an object by key.
func (m *minioStorage) Delete(ctx context.Context, kind model.Kind, name string) error {
	return m.client.RemoveObject(ctx, m.bucket, objectKey(kind, name), minio.RemoveObjectOptions{})
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
