package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"mediaapi/internal/model"
	"mediaapi/internal/storage"
	"mediaapi/internal/stream"
	"mediaapi/internal/validator"
)

// NewHTTPClient returns the client used for remote fetches. timeout bounds
// dialing, the TLS handshake and the wait for response headers. The body has
// no total deadline; IngestFromURL bounds each read from it instead.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: otelhttp.NewTransport(base)}
}

func (s *mediaService) IngestFromURL(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	ctx, span := s.tracer.Start(ctx, "media.IngestFromURL")
	defer span.End()

	src := strings.TrimSpace(req.SourceURL)
	if src == "" {
		return nil, fail(span, newError(ErrMissingURL, nil))
	}
	u, err := url.ParseRequestURI(src)
	if err != nil {
		return nil, fail(span, newError(ErrInvalidURL, err))
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fail(span, newError(ErrInvalidURL, fmt.Errorf("unsupported url %q", src)))
	}
	span.SetAttributes(attribute.String("media.source_host", u.Host))

	fetchCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	httpReq, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fail(span, newError(ErrInvalidURL, err))
	}
	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.metrics.failed(SourceURL, "")
		return nil, fail(span, newError(ErrFetchFailed, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.metrics.failed(SourceURL, "")
		return nil, fail(span, newError(ErrFetchFailed, fmt.Errorf("remote responded %s", resp.Status)))
	}

	contentType := resp.Header.Get("Content-Type")
	ext := validator.ExtensionForContentType(contentType)
	kind, ok := validator.ClassifyExtension(ext)
	if !ok {
		s.metrics.failed(SourceURL, "")
		return nil, fail(span, newError(ErrUnsupportedMediaType, fmt.Errorf("content type %q", contentType)))
	}

	name := s.names.uniqueName(req.FileName, ext)
	span.SetAttributes(attribute.String("media.kind", string(kind)), attribute.String("media.name", name))

	idle := newIdleReader(resp.Body, s.idle, cancel)
	defer idle.stop()

	body := stream.NewReader(ctx, stream.ReadCloser{Reader: idle, Closer: resp.Body}, s.stream)
	defer body.Close()

	info, err := s.store.Put(ctx, kind, name, body, storage.PutObjectOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"source-url": src},
	})
	if err != nil {
		s.metrics.failed(SourceURL, string(kind))
		if srcErr := body.SourceErr(); srcErr != nil || errors.Is(err, stream.ErrSource) {
			if cause := context.Cause(fetchCtx); errors.Is(cause, errBodyIdle) {
				err = fmt.Errorf("%w: %w", cause, err)
			}
			s.log.Warn("remote body read failed", zap.String("name", name), zap.Error(err))
			return nil, fail(span, newError(ErrFetchFailed, err))
		}
		s.log.Error("store write failed", zap.String("name", name), zap.Error(err))
		return nil, fail(span, newError(ErrWriteFailed, err))
	}

	rec, err := s.commit(ctx, &model.UploadedFile{
		OriginalName: name,
		MimeType:     contentType,
		SizeBytes:    info.Size,
		StoredName:   name,
		Kind:         kind,
	})
	if err != nil {
		s.metrics.failed(SourceURL, string(kind))
		return nil, fail(span, newError(ErrPersistenceFailed, err))
	}

	s.metrics.ingested(SourceURL, string(kind), info.Size)
	s.log.Info("media fetched",
		zap.String("kind", string(kind)),
		zap.String("name", name),
		zap.String("source_host", u.Host),
		zap.String("size", humanize.IBytes(uint64(info.Size))),
	)

	path := model.PublicPath(string(kind), name)
	return &FetchResult{
		DBRecord: rec,
		FileInfo: FileInfo{
			FileType: string(kind),
			FileName: name,
			Path:     path,
			FullURL:  strings.TrimSuffix(req.BaseURL, "/") + path,
			Size:     model.FormatSize(info.Size),
		},
	}, nil
}

var errBodyIdle = errors.New("remote body idle timeout")

// idleReader cancels the fetch when a single Read waits longer than timeout.
// The clock only runs inside Read, so a slow sink never trips it.
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
}

func newIdleReader(r io.Reader, timeout time.Duration, cancel context.CancelCauseFunc) *idleReader {
	t := time.AfterFunc(timeout, func() { cancel(errBodyIdle) })
	t.Stop()
	return &idleReader{r: r, timeout: timeout, timer: t}
}

func (i *idleReader) Read(p []byte) (int, error) {
	i.timer.Reset(i.timeout)
	n, err := i.r.Read(p)
	i.timer.Stop()
	return n, err
}

func (i *idleReader) stop() {
	i.timer.Stop()
}
