package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"mediaapi/internal/model"
	"mediaapi/internal/repository"
	"mediaapi/internal/storage"
	"mediaapi/internal/stream"
)

// DefaultFetchTimeout bounds connecting to a remote source, waiting for its
// headers and each wait for more of its body.
const DefaultFetchTimeout = 10 * time.Second

// FetchRequest asks the service to download and store a remote resource.
type FetchRequest struct {
	SourceURL string
	// FileName is an optional hint for the stored name.
	FileName string
	// BaseURL is scheme://host of the incoming request, used for FullURL.
	BaseURL string
}

// FileInfo summarises a fetched blob for the caller.
type FileInfo struct {
	FileType string `json:"fileType"`
	FileName string `json:"fileName"`
	Path     string `json:"path"`
	FullURL  string `json:"fullUrl"`
	Size     string `json:"size"`
}

// FetchResult is the outcome of a remote fetch.
type FetchResult struct {
	DBRecord *model.MediaRecord `json:"dbRecord"`
	FileInfo FileInfo           `json:"fileInfo"`
}

// ServeRequest identifies a stored blob and an optional Range header.
type ServeRequest struct {
	Kind     string
	FileName string
	Range    string
}

// Delivery is a framework-neutral response directive. Body must be closed by the caller.
type Delivery struct {
	Status  int
	Headers map[string]string
	Body    io.ReadCloser
	Length  int64
}

// MediaService defines the media ingestion and delivery use cases.
type MediaService interface {
	// IngestUpload records a blob already written by the upload middleware.
	// The blob is deleted again when its record cannot be created.
	IngestUpload(ctx context.Context, file *model.UploadedFile) (*model.MediaRecord, error)

	// IngestFromURL streams a remote resource into the content store and records it.
	IngestFromURL(ctx context.Context, req FetchRequest) (*FetchResult, error)

	// ListByKind returns every record of the kind, newest first.
	ListByKind(ctx context.Context, kind model.Kind) ([]model.MediaRecord, error)

	// Serve opens a stored blob as a full or partial response.
	Serve(ctx context.Context, req ServeRequest) (*Delivery, error)
}

// Options configures a MediaService. Zero values select defaults.
type Options struct {
	HTTPClient   *http.Client
	FetchTimeout time.Duration
	Stream       stream.Options
	Logger       *zap.Logger
	Metrics      *Metrics
	Now          func() time.Time
}

type mediaService struct {
	store   storage.Store
	repo    repository.MediaRepository
	client  *http.Client
	idle    time.Duration
	stream  stream.Options
	log     *zap.Logger
	metrics *Metrics
	names   *nameClock
	tracer  trace.Tracer
}

// NewMediaService constructs a MediaService over a content store and a metadata store.
func NewMediaService(store storage.Store, repo repository.MediaRepository, opts Options) MediaService {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = NewHTTPClient(opts.FetchTimeout)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &mediaService{
		store:   store,
		repo:    repo,
		client:  opts.HTTPClient,
		idle:    opts.FetchTimeout,
		stream:  opts.Stream,
		log:     opts.Logger,
		metrics: opts.Metrics,
		names:   &nameClock{now: opts.Now},
		tracer:  otel.Tracer("mediaapi/internal/service"),
	}
}

func (s *mediaService) IngestUpload(ctx context.Context, file *model.UploadedFile) (*model.MediaRecord, error) {
	ctx, span := s.tracer.Start(ctx, "media.IngestUpload")
	defer span.End()

	if file == nil {
		return nil, fail(span, newError(ErrNoFileProvided, nil))
	}
	span.SetAttributes(
		attribute.String("media.kind", string(file.Kind)),
		attribute.String("media.name", file.StoredName),
		attribute.Int64("media.size", file.SizeBytes),
	)

	rec, err := s.commit(ctx, file)
	if err != nil {
		s.metrics.failed(SourceUpload, string(file.Kind))
		return nil, fail(span, newError(ErrUploadFailed, err))
	}
	s.metrics.ingested(SourceUpload, string(file.Kind), file.SizeBytes)
	s.log.Info("media uploaded",
		zap.String("kind", rec.FileType),
		zap.String("name", rec.FileName),
		zap.String("size", humanize.IBytes(uint64(file.SizeBytes))),
	)
	return rec, nil
}

// commit writes the metadata record for a blob already in the store.
// fileType is the primary component of the MIME type, independent of the partition.
// On failure the blob is deleted.
func (s *mediaService) commit(ctx context.Context, file *model.UploadedFile) (*model.MediaRecord, error) {
	fileType, _, _ := strings.Cut(file.MimeType, "/")
	fileType = strings.ToLower(strings.TrimSpace(fileType))

	rec := &model.MediaRecord{
		ID:       uuid.New().String(),
		FileName: file.StoredName,
		FileURL:  model.PublicPath(fileType, file.StoredName),
		FileType: fileType,
		FileSize: model.FormatSize(file.SizeBytes),
	}
	stored, err := s.repo.Create(ctx, rec)
	if err == nil && stored == nil {
		err = fmt.Errorf("metadata store returned no record")
	}
	if err == nil {
		return stored, nil
	}

	// Compensating delete
	if delErr := s.store.Delete(ctx, file.Kind, file.StoredName); delErr != nil {
		s.log.Error("rollback delete failed",
			zap.String("kind", string(file.Kind)),
			zap.String("name", file.StoredName),
			zap.Error(delErr),
		)
		return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
	}
	s.log.Warn("blob removed after metadata failure",
		zap.String("kind", string(file.Kind)),
		zap.String("name", file.StoredName),
		zap.Error(err),
	)
	return nil, fmt.Errorf("db save failed: %w", err)
}

func (s *mediaService) ListByKind(ctx context.Context, kind model.Kind) ([]model.MediaRecord, error) {
	ctx, span := s.tracer.Start(ctx, "media.ListByKind", trace.WithAttributes(attribute.String("media.kind", string(kind))))
	defer span.End()

	recs, err := s.repo.FindByKind(ctx, kind)
	if err != nil {
		return nil, fail(span, fmt.Errorf("find %s records: %w", kind, err))
	}
	return recs, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
