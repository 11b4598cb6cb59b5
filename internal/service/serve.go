package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"mediaapi/internal/model"
	"mediaapi/internal/storage"
	"mediaapi/internal/stream"
	"mediaapi/internal/validator"
)

func (s *mediaService) Serve(ctx context.Context, req ServeRequest) (*Delivery, error) {
	ctx, span := s.tracer.Start(ctx, "media.Serve")
	defer span.End()

	kind, ok := model.ParseKind(req.Kind)
	if !ok {
		return nil, fail(span, newError(ErrInvalidMediaType, fmt.Errorf("media type %q", req.Kind)))
	}
	if strings.Contains(req.FileName, "../") || strings.Contains(req.FileName, `..\`) {
		return nil, fail(span, newError(ErrPathTraversal, nil))
	}
	span.SetAttributes(attribute.String("media.kind", string(kind)), attribute.String("media.name", req.FileName))

	obj, info, err := s.store.Open(ctx, kind, req.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			s.metrics.delivered(string(kind), http.StatusNotFound)
			return nil, fail(span, newError(ErrNotFound, nil))
		}
		return nil, fail(span, fmt.Errorf("open %s/%s: %w", kind, req.FileName, err))
	}

	size := info.Size
	headers := map[string]string{}

	if kind == model.KindImage {
		headers["Content-Type"] = validator.ContentTypeForName(req.FileName, "application/octet-stream")
		s.metrics.delivered(string(kind), http.StatusOK)
		return &Delivery{Status: http.StatusOK, Headers: headers, Body: s.body(ctx, obj, obj), Length: size}, nil
	}

	headers["Content-Type"] = validator.ContentTypeForName(req.FileName, "video/mp4")
	headers["Accept-Ranges"] = "bytes"
	if req.Range == "" {
		s.metrics.delivered(string(kind), http.StatusOK)
		return &Delivery{Status: http.StatusOK, Headers: headers, Body: s.body(ctx, obj, obj), Length: size}, nil
	}

	start, end, err := parseRange(req.Range, size)
	if err != nil {
		_ = obj.Close()
		s.metrics.delivered(string(kind), http.StatusRequestedRangeNotSatisfiable)
		return nil, fail(span, newError(ErrRangeNotSatisfiable, err))
	}
	if _, err := obj.Seek(start, io.SeekStart); err != nil {
		_ = obj.Close()
		return nil, fail(span, fmt.Errorf("seek %s/%s: %w", kind, req.FileName, err))
	}

	length := end - start + 1
	headers["Content-Range"] = fmt.Sprintf("bytes %d-%d/%d", start, end, size)
	span.SetAttributes(attribute.Int64("media.range_start", start), attribute.Int64("media.range_end", end))
	s.metrics.delivered(string(kind), http.StatusPartialContent)
	return &Delivery{
		Status:  http.StatusPartialContent,
		Headers: headers,
		Body:    s.body(ctx, io.LimitReader(obj, length), obj),
		Length:  length,
	}, nil
}

// body pipes r through a bounded stream reader. Closing it closes the blob.
// It outlives the request handler, so cancellation comes from Close only.
func (s *mediaService) body(ctx context.Context, r io.Reader, c io.Closer) io.ReadCloser {
	return stream.NewReader(context.WithoutCancel(ctx), stream.ReadCloser{Reader: r, Closer: c}, s.stream)
}

// parseRange reads a single "bytes=<start>-<end>" range. Anything after the
// first comma is ignored. end defaults to, and is clamped at, size-1.
func parseRange(header string, size int64) (int64, int64, error) {
	ranges, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("unsupported range unit in %q", header)
	}
	if i := strings.IndexByte(ranges, ','); i >= 0 {
		ranges = ranges[:i]
	}
	startStr, endStr, _ := strings.Cut(ranges, "-")

	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("invalid range start in %q", header)
	}
	if start >= size {
		return 0, 0, fmt.Errorf("range start %d beyond size %d", start, size)
	}

	end := size - 1
	if endStr = strings.TrimSpace(endStr); endStr != "" {
		e, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || e < start {
			return 0, 0, fmt.Errorf("invalid range end in %q", header)
		}
		end = min(e, size-1)
	}
	return start, end, nil
}
