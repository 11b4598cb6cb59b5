package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"mediaapi/internal/model"
	"mediaapi/internal/storage"
	storeMocks "mediaapi/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func putBlob(t *testing.T, store *storage.LocalStorage, kind model.Kind, name string, data []byte) {
	t.Helper()
	_, err := store.Put(context.Background(), kind, name, bytes.NewReader(data), storage.PutObjectOptions{})
	require.NoError(t, err)
}

func readAll(t *testing.T, d *Delivery) []byte {
	t.Helper()
	defer d.Body.Close()
	b, err := io.ReadAll(d.Body)
	require.NoError(t, err)
	return b
}

func videoFixture(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestMediaService_Serve_Video(t *testing.T) {
	const size = 1000
	data := videoFixture(size)
	store := newLocalStore(t)
	putBlob(t, store, model.KindVideo, "clip.mp4", data)
	svc := NewMediaService(store, &memRepo{}, Options{})
	ctx := context.Background()

	t.Run("no range streams everything", func(t *testing.T) {
		d, err := svc.Serve(ctx, ServeRequest{Kind: "video", FileName: "clip.mp4"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, d.Status)
		assert.Equal(t, int64(size), d.Length)
		assert.Equal(t, "video/mp4", d.Headers["Content-Type"])
		assert.Equal(t, data, readAll(t, d))
	})

	t.Run("first hundred bytes", func(t *testing.T) {
		d, err := svc.Serve(ctx, ServeRequest{Kind: "video", FileName: "clip.mp4", Range: "bytes=0-99"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusPartialContent, d.Status)
		assert.Equal(t, int64(100), d.Length)
		assert.Equal(t, "bytes 0-99/1000", d.Headers["Content-Range"])
		assert.Equal(t, "bytes", d.Headers["Accept-Ranges"])
		assert.Equal(t, data[:100], readAll(t, d))
	})

	t.Run("open ended range", func(t *testing.T) {
		d, err := svc.Serve(ctx, ServeRequest{Kind: "video", FileName: "clip.mp4", Range: "bytes=900-"})
		require.NoError(t, err)
		assert.Equal(t, int64(100), d.Length)
		assert.Equal(t, "bytes 900-999/1000", d.Headers["Content-Range"])
		assert.Equal(t, data[900:], readAll(t, d))
	})

	t.Run("end is clamped to the last byte", func(t *testing.T) {
		d, err := svc.Serve(ctx, ServeRequest{Kind: "video", FileName: "clip.mp4", Range: "bytes=990-5000"})
		require.NoError(t, err)
		assert.Equal(t, "bytes 990-999/1000", d.Headers["Content-Range"])
		assert.Equal(t, data[990:], readAll(t, d))
	})

	t.Run("only the first of several ranges is served", func(t *testing.T) {
		d, err := svc.Serve(ctx, ServeRequest{Kind: "video", FileName: "clip.mp4", Range: "bytes=10-19, 50-59"})
		require.NoError(t, err)
		assert.Equal(t, "bytes 10-19/1000", d.Headers["Content-Range"])
		assert.Equal(t, data[10:20], readAll(t, d))
	})

	for _, rng := range []string{"bytes=1000-", "bytes=5000-6000", "bytes=-100", "bytes=abc-", "bytes=50-10", "items=0-1"} {
		t.Run("unsatisfiable "+rng, func(t *testing.T) {
			d, err := svc.Serve(ctx, ServeRequest{Kind: "video", FileName: "clip.mp4", Range: rng})
			assert.ErrorIs(t, err, ErrRangeNotSatisfiable)
			assert.Nil(t, d)
		})
	}
}

func TestMediaService_Serve_ImageIgnoresRange(t *testing.T) {
	data := []byte("\x89PNG fake image bytes")
	store := newLocalStore(t)
	putBlob(t, store, model.KindImage, "logo.png", data)
	putBlob(t, store, model.KindImage, "raw.blob", data)
	svc := NewMediaService(store, &memRepo{}, Options{})

	d, err := svc.Serve(context.Background(), ServeRequest{Kind: "image", FileName: "logo.png", Range: "bytes=0-3"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, d.Status)
	assert.Equal(t, "image/png", d.Headers["Content-Type"])
	assert.Empty(t, d.Headers["Content-Range"])
	assert.Equal(t, data, readAll(t, d))

	d, err = svc.Serve(context.Background(), ServeRequest{Kind: "image", FileName: "raw.blob"})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", d.Headers["Content-Type"])
	_ = readAll(t, d)
}

func TestMediaService_Serve_Rejections(t *testing.T) {
	mStore := new(storeMocks.MockStorage)
	mStore.On("Open", mock.Anything, model.KindImage, "missing.png").
		Return(nil, storage.ObjectInfo{}, storage.ErrNotExist)
	mStore.On("Open", mock.Anything, model.KindVideo, "broken.mp4").
		Return(nil, storage.ObjectInfo{}, errors.New("io error"))
	svc := NewMediaService(mStore, &memRepo{}, Options{})

	tests := []struct {
		name string
		req  ServeRequest
		want error
	}{
		{"unknown kind", ServeRequest{Kind: "audio", FileName: "a.mp3"}, ErrInvalidMediaType},
		{"plural kind", ServeRequest{Kind: "images", FileName: "a.png"}, ErrInvalidMediaType},
		{"traversal image", ServeRequest{Kind: "image", FileName: "../../etc/passwd"}, ErrPathTraversal},
		{"traversal video", ServeRequest{Kind: "video", FileName: "../../etc/passwd"}, ErrPathTraversal},
		{"backslash traversal", ServeRequest{Kind: "video", FileName: `..\..\secret`}, ErrPathTraversal},
		{"missing", ServeRequest{Kind: "image", FileName: "missing.png"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := svc.Serve(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, d)
		})
	}

	d, err := svc.Serve(context.Background(), ServeRequest{Kind: "video", FileName: "broken.mp4"})
	assert.ErrorContains(t, err, "io error")
	assert.Nil(t, d)

	// traversal is rejected before the store is consulted
	mStore.AssertNumberOfCalls(t, "Open", 2)
}

func TestMediaService_Serve_CloseReleasesFile(t *testing.T) {
	store := newLocalStore(t)
	putBlob(t, store, model.KindVideo, "long.webm", videoFixture(1<<20))
	svc := NewMediaService(store, &memRepo{}, Options{})

	d, err := svc.Serve(context.Background(), ServeRequest{Kind: "video", FileName: "long.webm", Range: "bytes=0-"})
	require.NoError(t, err)
	assert.Equal(t, "video/webm", d.Headers["Content-Type"])

	buf := make([]byte, 10)
	_, err = io.ReadFull(d.Body, buf)
	require.NoError(t, err)
	require.NoError(t, d.Body.Close())

	// the blob can be removed once the stream is closed
	assert.NoError(t, os.Remove(filepath.Join(store.Root(), "videos", "long.webm")))
}

func TestParseRange(t *testing.T) {
	start, end, err := parseRange("bytes=0-99", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(99), end)

	start, end, err = parseRange(" bytes=5- ", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), start)
	assert.Equal(t, int64(9), end)

	start, end, err = parseRange("bytes=10-19,40-49", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(10), start)
	assert.Equal(t, int64(19), end)

	_, _, err = parseRange("bytes=-20", 100)
	assert.Error(t, err)

	_, _, err = parseRange("bytes=0-0", 0)
	assert.Error(t, err)
}
