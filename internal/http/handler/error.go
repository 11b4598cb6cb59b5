package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"mediaapi/internal/model"
	"mediaapi/internal/service"
	"mediaapi/internal/validator"
)

// GenericErrorMessage is sent for any failure without a dedicated response.
const GenericErrorMessage = "something went wrong...!"

// serviceErrors maps service error categories to their responses.
var serviceErrors = []struct {
	kind    error
	status  int
	message string
}{
	{service.ErrMissingURL, fiber.StatusBadRequest, "File URL is required"},
	{service.ErrInvalidURL, fiber.StatusBadRequest, "Invalid URL format"},
	{service.ErrUnsupportedMediaType, fiber.StatusBadRequest, "Only image or video files are allowed"},
	{service.ErrNoFileProvided, fiber.StatusBadRequest, "No file uploaded"},
	{service.ErrInvalidMediaType, fiber.StatusBadRequest, "Invalid media type"},
	{service.ErrPathTraversal, fiber.StatusBadRequest, "Invalid file name"},
	{service.ErrNotFound, fiber.StatusNotFound, "File not found"},
	{service.ErrRangeNotSatisfiable, fiber.StatusRequestedRangeNotSatisfiable, "Requested range not satisfiable"},
	{service.ErrUploadFailed, fiber.StatusInternalServerError, "File upload failed"},
	{service.ErrFetchFailed, fiber.StatusInternalServerError, "Failed to fetch remote file"},
	{service.ErrWriteFailed, fiber.StatusInternalServerError, "Failed to save file"},
	{service.ErrPersistenceFailed, fiber.StatusInternalServerError, "File uploaded but failed to save database record"},
}

// writeServiceError answers with the envelope for err's category. Errors
// without a category are returned for the global ErrorHandler.
func writeServiceError(c *fiber.Ctx, err error) error {
	for _, se := range serviceErrors {
		if !errors.Is(err, se.kind) {
			continue
		}
		var data any
		switch se.kind {
		case service.ErrUnsupportedMediaType:
			data = fiber.Map{"supportedTypes": validator.SupportedExtensions()}
		case service.ErrInvalidMediaType:
			data = fiber.Map{"supportedTypes": model.Kinds}
		default:
			if se.status >= fiber.StatusInternalServerError {
				var svcErr *service.Error
				if errors.As(err, &svcErr) {
					data = errorData(svcErr.Cause())
				}
			}
		}
		return writeResponse(c, se.status, se.message, data)
	}
	return err
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ft *validator.InvalidFileTypeError
		if errors.As(err, &ft) {
			return writeResponse(c, fiber.StatusBadRequest, ft.Error(), nil)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case fiber.StatusBadRequest:
				return writeResponse(c, fe.Code, "bad request", nil)
			case fiber.StatusNotFound:
				return writeResponse(c, fe.Code, "resource not found", nil)
			case fiber.StatusMethodNotAllowed:
				return writeResponse(c, fe.Code, "method not allowed", nil)
			case fiber.StatusRequestEntityTooLarge:
				return writeResponse(c, fe.Code, "file too large", nil)
			}
		}

		log.Error("unhandled request error",
			zap.String("request_id", requestIDFromCtx(c)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return writeResponse(c, fiber.StatusInternalServerError, GenericErrorMessage, nil)
	}
}
