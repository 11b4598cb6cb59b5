package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"mediaapi/internal/model"
	"mediaapi/internal/storage"
	"mediaapi/internal/validator"
)

const (
	// UploadedFileLocalKey holds the *model.UploadedFile stored by Upload.
	UploadedFileLocalKey = "uploaded_file"
	// UploadField is the multipart field carrying the file.
	UploadField = "file"
)

// name collisions within one millisecond are retried with the next stamp
const maxNameAttempts = 8

// UploadOptions tunes the upload middleware.
type UploadOptions struct {
	Now func() time.Time
}

// Upload accepts the multipart field "file" for one kind. The MIME type must be
// on that kind's allow-list, otherwise a *validator.InvalidFileTypeError is
// returned. The file is written to the kind's partition as
// <unixMillis>-<sanitized original name> and handed to the next handler
// through c.Locals(UploadedFileLocalKey). A request without a file passes
// through untouched.
func Upload(store storage.Store, kind model.Kind, opts UploadOptions) fiber.Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile(UploadField)
		if err != nil {
			return c.Next()
		}

		mimeType := fh.Header.Get(fiber.HeaderContentType)
		got, err := validator.ClassifyMimeType(mimeType)
		if err != nil {
			return err
		}
		if got != kind {
			return &validator.InvalidFileTypeError{MimeType: mimeType}
		}

		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open uploaded file: %w", err)
		}
		defer f.Close()

		ms := now().UnixMilli()
		var (
			name string
			info storage.ObjectInfo
		)
		for attempt := 0; attempt < maxNameAttempts; attempt++ {
			prefix := fmt.Sprintf("%d-", ms+int64(attempt))
			name = prefix + validator.SanitizeFileName(fh.Filename, validator.MaxFileNameLength-len(prefix))
			info, err = store.Put(c.UserContext(), kind, name, f, storage.PutObjectOptions{
				ContentType: mimeType,
				Metadata:    map[string]string{"original-filename": fh.Filename},
			})
			if !errors.Is(err, storage.ErrExist) {
				break
			}
		}
		if err != nil {
			return fmt.Errorf("store uploaded file: %w", err)
		}

		c.Locals(UploadedFileLocalKey, &model.UploadedFile{
			OriginalName: fh.Filename,
			MimeType:     mimeType,
			SizeBytes:    info.Size,
			StoredName:   name,
			Kind:         kind,
		})
		return c.Next()
	}
}

// UploadedFile returns the file stored by Upload, or nil.
func UploadedFile(c *fiber.Ctx) *model.UploadedFile {
	f, _ := c.Locals(UploadedFileLocalKey).(*model.UploadedFile)
	return f
}
