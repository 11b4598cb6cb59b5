package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mediaapi/internal/http/middleware"
	"mediaapi/internal/model"
	"mediaapi/internal/service"
	serviceMocks "mediaapi/internal/service/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnvelope struct {
	StatusCode int             `json:"statusCode"`
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, resp.StatusCode, env.StatusCode)
	return env
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
}

func TestHealthCheck(t *testing.T) {
	var pingErr error
	app := newApp()
	app.Get("/health", HealthCheck(func(context.Context) error { return pingErr }))

	t.Run("healthy", func(t *testing.T) {
		pingErr = nil
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		pingErr = errors.New("db error")
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.False(t, env.Success)
		assert.Equal(t, "dependency unavailable", env.Message)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListMedia(t *testing.T) {
	mockSvc := new(serviceMocks.MockMediaService)
	app := newApp()
	app.Get("/media/images", ListMedia(mockSvc, model.KindImage))

	t.Run("success", func(t *testing.T) {
		recs := []model.MediaRecord{{ID: "1", FileName: "a-1.png", FileType: "image"}}
		mockSvc.On("ListByKind", mock.Anything, model.KindImage).Return(recs, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/media/images", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		assert.True(t, env.Success)
		assert.Equal(t, "Media files retrieved successfully.", env.Message)
		var got []model.MediaRecord
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, recs[0].FileName, got[0].FileName)
		mockSvc.AssertExpectations(t)
	})

	t.Run("empty is not found with null data", func(t *testing.T) {
		mockSvc.On("ListByKind", mock.Anything, model.KindImage).Return([]model.MediaRecord{}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/media/images", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		assert.False(t, env.Success)
		assert.Equal(t, "No media files found in the database.", env.Message)
		assert.Equal(t, "null", string(env.Data))
	})

	t.Run("service error falls through to the generic handler", func(t *testing.T) {
		mockSvc.On("ListByKind", mock.Anything, model.KindImage).Return(nil, errors.New("db down")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/media/images", nil))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, GenericErrorMessage, env.Message)
	})
}

func TestUploadFromURL(t *testing.T) {
	mockSvc := new(serviceMocks.MockMediaService)
	app := newApp()
	app.Post("/media/urlFileUpload", UploadFromURL(mockSvc))

	post := func(body string, headers map[string]string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/media/urlFileUpload", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			if k == "Host" {
				req.Host = v
				continue
			}
			req.Header.Set(k, v)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("success uses forwarded scheme for the base url", func(t *testing.T) {
		res := &service.FetchResult{
			DBRecord: &model.MediaRecord{ID: "1"},
			FileInfo: service.FileInfo{FileType: "image", FileName: "cat-1.png", Path: "/media/image/cat-1.png"},
		}
		mockSvc.On("IngestFromURL", mock.Anything, service.FetchRequest{
			SourceURL: "https://example.org/cat.png",
			FileName:  "cat",
			BaseURL:   "https://media.example.com",
		}).Return(res, nil).Once()

		resp := post(`{"fileUrl":"https://example.org/cat.png","fileName":"cat"}`, map[string]string{
			"Host":              "media.example.com",
			"X-Forwarded-Proto": "https, http",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		assert.True(t, env.Success)
		assert.Equal(t, "File uploaded and saved successfully", env.Message)
		var got service.FetchResult
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "cat-1.png", got.FileInfo.FileName)
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := post(`{"fileUrl":`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantData   string
	}{
		{"missing url", &service.Error{Kind: service.ErrMissingURL}, 400, "File URL is required", "null"},
		{"invalid url", &service.Error{Kind: service.ErrInvalidURL, Err: errors.New("parse")}, 400, "Invalid URL format", "null"},
		{"fetch failure", &service.Error{Kind: service.ErrFetchFailed, Err: errors.New("timeout")}, 500, "Failed to fetch remote file", `{"error":"timeout"}`},
		{"write failure", &service.Error{Kind: service.ErrWriteFailed, Err: errors.New("disk full")}, 500, "Failed to save file", `{"error":"disk full"}`},
		{"persistence failure", &service.Error{Kind: service.ErrPersistenceFailed, Err: errors.New("db save failed: dup")}, 500, "File uploaded but failed to save database record", `{"error":"db save failed: dup"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc.On("IngestFromURL", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			resp := post(`{"fileUrl":"x"}`, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			env := decodeEnvelope(t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
			assert.JSONEq(t, tt.wantData, string(env.Data))
		})
	}
}

func TestUploadManually(t *testing.T) {
	mockSvc := new(serviceMocks.MockMediaService)
	app := newApp()
	app.Post("/upload", UploadManually(mockSvc))

	t.Run("no file", func(t *testing.T) {
		mockSvc.On("IngestUpload", mock.Anything, (*model.UploadedFile)(nil)).
			Return(nil, &service.Error{Kind: service.ErrNoFileProvided}).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/upload", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, "No file uploaded", env.Message)
		mockSvc.AssertExpectations(t)
	})

	t.Run("upload failed", func(t *testing.T) {
		mockSvc.On("IngestUpload", mock.Anything, mock.Anything).
			Return(nil, &service.Error{Kind: service.ErrUploadFailed, Err: errors.New("db save failed: down")}).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/upload", nil))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, "File upload failed", env.Message)
		assert.JSONEq(t, `{"error":"db save failed: down"}`, string(env.Data))
	})
}

func TestStreamMedia_Errors(t *testing.T) {
	mockSvc := new(serviceMocks.MockMediaService)
	app := newApp()
	app.Get("/media/:type/+", StreamMedia(mockSvc))

	t.Run("invalid media type lists the kinds", func(t *testing.T) {
		mockSvc.On("Serve", mock.Anything, service.ServeRequest{Kind: "audio", FileName: "a.mp3"}).
			Return(nil, &service.Error{Kind: service.ErrInvalidMediaType}).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/media/audio/a.mp3", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, "Invalid media type", env.Message)
		assert.JSONEq(t, `{"supportedTypes":["image","video"]}`, string(env.Data))
	})

	t.Run("range not satisfiable", func(t *testing.T) {
		mockSvc.On("Serve", mock.Anything, service.ServeRequest{Kind: "video", FileName: "a.mp4", Range: "bytes=99-"}).
			Return(nil, &service.Error{Kind: service.ErrRangeNotSatisfiable}).Once()

		req := httptest.NewRequest(http.MethodGet, "/media/video/a.mp4", nil)
		req.Header.Set("Range", "bytes=99-")
		resp, _ := app.Test(req)
		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, "Requested range not satisfiable", env.Message)
	})

	t.Run("uncategorised error", func(t *testing.T) {
		mockSvc.On("Serve", mock.Anything, mock.Anything).Return(nil, errors.New("io")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/media/video/b.mp4", nil))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, GenericErrorMessage, env.Message)
	})
}

func TestStreamMedia_WritesDelivery(t *testing.T) {
	mockSvc := new(serviceMocks.MockMediaService)
	app := newApp()
	app.Get("/media/:type/+", StreamMedia(mockSvc))

	mockSvc.On("Serve", mock.Anything, service.ServeRequest{Kind: "video", FileName: "a.mp4", Range: "bytes=2-5"}).
		Return(&service.Delivery{
			Status:  http.StatusPartialContent,
			Headers: map[string]string{"Content-Type": "video/mp4", "Content-Range": "bytes 2-5/10", "Accept-Ranges": "bytes"},
			Body:    io.NopCloser(strings.NewReader("2345")),
			Length:  4,
		}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/media/video/a.mp4", nil)
	req.Header.Set("Range", "bytes=2-5")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	assert.Equal(t, "bytes 2-5/10", resp.Header.Get("Content-Range"))
	assert.Equal(t, "4", resp.Header.Get("Content-Length"))
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "2345", string(body))
}

func TestErrorHandler(t *testing.T) {
	app := newApp()
	RegisterRoutes(app, func(context.Context) error { return nil }, new(serviceMocks.MockMediaService), nil, middleware.UploadOptions{})

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, "resource not found", env.Message)
		assert.False(t, env.Success)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		env := decodeEnvelope(t, resp)
		assert.Equal(t, "method not allowed", env.Message)
	})
}
