package service

import "errors"

// Error categories. Handlers match them with errors.Is.
var (
	ErrMissingURL           = errors.New("file URL is required")
	ErrInvalidURL           = errors.New("invalid URL format")
	ErrUnsupportedMediaType = errors.New("only image or video files are allowed")
	ErrNoFileProvided       = errors.New("no file uploaded")
	ErrUploadFailed         = errors.New("file upload failed")
	ErrFetchFailed          = errors.New("failed to fetch remote file")
	ErrWriteFailed          = errors.New("failed to save file")
	ErrPersistenceFailed    = errors.New("file uploaded but failed to save database record")
	ErrInvalidMediaType     = errors.New("invalid media type")
	ErrPathTraversal        = errors.New("invalid file name")
	ErrNotFound             = errors.New("file not found")
	ErrRangeNotSatisfiable  = errors.New("requested range not satisfiable")
)

// Error ties a category to its underlying cause.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Cause returns the message of the underlying error, or "" when there is none.
func (e *Error) Cause() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newError(kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
