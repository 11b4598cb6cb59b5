package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"mediaapi/internal/http/middleware"
	"mediaapi/internal/model"
	"mediaapi/internal/service"
)

// urlUploadRequest is the body of POST /media/urlFileUpload.
type urlUploadRequest struct {
	FileURL  string `json:"fileUrl" form:"fileUrl"`
	FileName string `json:"fileName" form:"fileName"`
}

// UploadFromURL downloads a remote image or video and stores it.
//
// @Summary Fetch and store a file by URL
// @Tags media
// @Accept json
// @Produce json
// @Param body body urlUploadRequest true "Source URL and optional file name hint"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 500 {object} envelope
// @Router /media/urlFileUpload [post]
func UploadFromURL(svc service.MediaService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req urlUploadRequest
		if err := parseURLUpload(c, &req); err != nil {
			return writeResponse(c, fiber.StatusBadRequest, "Invalid request body", nil)
		}

		res, err := svc.IngestFromURL(c.UserContext(), service.FetchRequest{
			SourceURL: req.FileURL,
			FileName:  req.FileName,
			BaseURL:   baseURL(c),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeResponse(c, fiber.StatusOK, "File uploaded and saved successfully", res)
	}
}

// UploadManually records a file stored by the upload middleware.
//
// @Summary Upload an image or a video
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Media file"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 500 {object} envelope
// @Router /media/manuallyImageUpload [post]
// @Router /media/manuallyVideoUpload [post]
func UploadManually(svc service.MediaService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svc.IngestUpload(c.UserContext(), middleware.UploadedFile(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeResponse(c, fiber.StatusOK, "File uploaded successfully", rec)
	}
}

// ListMedia lists every record of one kind, newest first.
//
// @Summary List stored media of one kind
// @Tags media
// @Produce json
// @Success 200 {object} envelope
// @Failure 404 {object} envelope
// @Router /media/images [get]
// @Router /media/videos [get]
func ListMedia(svc service.MediaService, kind model.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recs, err := svc.ListByKind(c.UserContext(), kind)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return writeResponse(c, fiber.StatusNotFound, "No media files found in the database.", nil)
		}
		return writeResponse(c, fiber.StatusOK, "Media files retrieved successfully.", recs)
	}
}

// StreamMedia serves a stored blob, honouring Range for videos.
//
// @Summary Stream a stored file
// @Tags media
// @Produce octet-stream
// @Param type path string true "image or video"
// @Param fileName path string true "Stored file name"
// @Param Range header string false "bytes=<start>-<end>"
// @Success 200 {file} binary
// @Success 206 {file} binary
// @Failure 400 {object} envelope
// @Failure 404 {object} envelope
// @Failure 416 {object} envelope
// @Router /media/{type}/{fileName} [get]
func StreamMedia(svc service.MediaService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := svc.Serve(c.UserContext(), service.ServeRequest{
			Kind:     c.Params("type"),
			FileName: c.Params("+"),
			Range:    c.Get(fiber.HeaderRange),
		})
		if err != nil {
			return writeServiceError(c, err)
		}

		for k, v := range d.Headers {
			c.Set(k, v)
		}
		c.Status(d.Status)
		// fasthttp closes the body once written or when the client goes away
		return c.SendStream(d.Body, int(d.Length))
	}
}

// baseURL is scheme://host of the request, preferring X-Forwarded-Proto.
func baseURL(c *fiber.Ctx) string {
	scheme := c.Protocol()
	if proto := c.Get(fiber.HeaderXForwardedProto); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + c.Get(fiber.HeaderHost)
}

// parseURLUpload decodes the request body. An empty body or one without a
// recognised Content-Type leaves req empty so the service reports the
// missing URL.
func parseURLUpload(c *fiber.Ctx, req *urlUploadRequest) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return err
	}
	return nil
}
