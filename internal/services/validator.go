package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/gabriel-vasile/mimetype"
)

// ValidationError is a local precondition failure. It is reported to the
// client before any remote call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidationResult contains the results of file validation
type ValidationResult struct {
	Valid        bool
	DetectedType models.AttachmentType
	ContentType  string
	Size         int64
	Errors       []string
}

// Err folds the collected problems into one ValidationError
func (r *ValidationResult) Err(filename string) error {
	if r.Valid {
		return nil
	}
	return NewValidationError("file", "%s: %s", filename, strings.Join(r.Errors, "; "))
}

// FileValidator validates attachment uploads: images and PDFs only
type FileValidator struct {
	maxSizeBytes int64
}

// Content types accepted as attachments, keyed by sniffed MIME type
var attachmentTypes = map[string]models.AttachmentType{
	"image/jpeg":      models.AttachmentTypeImage,
	"image/png":       models.AttachmentTypeImage,
	"image/gif":       models.AttachmentTypeImage,
	"image/webp":      models.AttachmentTypeImage,
	"image/bmp":       models.AttachmentTypeImage,
	"image/tiff":      models.AttachmentTypeImage,
	"application/pdf": models.AttachmentTypePDF,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".pdf":  true,
}

func NewFileValidator(maxSizeBytes int64) *FileValidator {
	return &FileValidator{maxSizeBytes: maxSizeBytes}
}

func (v *FileValidator) MaxSize() int64 {
	return v.maxSizeBytes
}

// ValidateFile reads the whole file and checks name, size and content.
// The declared content type is ignored in favour of the sniffed one.
func (v *FileValidator) ValidateFile(reader io.Reader, filename string) (*ValidationResult, []byte, error) {
	// Read one byte past the limit so oversize files are detected without
	// buffering them entirely.
	data, err := io.ReadAll(io.LimitReader(reader, v.maxSizeBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	result := v.ValidateBytes(data, filename)
	return result, data, nil
}

// ValidateBytes validates an already buffered file
func (v *FileValidator) ValidateBytes(data []byte, filename string) *ValidationResult {
	result := &ValidationResult{
		Valid:  true,
		Size:   int64(len(data)),
		Errors: []string{},
	}
	fail := func(err error) {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	if err := v.ValidateFilename(filename); err != nil {
		fail(err)
	}
	if err := v.ValidateFileSize(result.Size); err != nil {
		fail(err)
	}

	kind, contentType, err := v.DetectType(data)
	if err != nil {
		fail(err)
	} else {
		result.DetectedType = kind
		result.ContentType = contentType
	}

	return result
}

// ValidateFilename validates the filename for security issues
func (v *FileValidator) ValidateFilename(filename string) error {
	if filename == "" {
		return errors.New("filename cannot be empty")
	}
	if strings.Contains(filename, "..") {
		return errors.New("filename contains path traversal")
	}
	if strings.Contains(filename, "\x00") {
		return errors.New("filename contains null bytes")
	}
	if strings.HasPrefix(filename, "/") || strings.HasPrefix(filename, "\\") {
		return errors.New("filename cannot be absolute path")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return errors.New("filename must have an extension")
	}
	if !allowedExtensions[ext] {
		return fmt.Errorf("unsupported file extension: %s", ext)
	}

	return nil
}

// DetectType sniffs the content and maps it to an attachment type
func (v *FileValidator) DetectType(data []byte) (models.AttachmentType, string, error) {
	if len(data) == 0 {
		return "", "", errors.New("empty file")
	}
	mt, err := mimetype.DetectReader(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("failed to detect content type: %w", err)
	}
	contentType := mt.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	kind, ok := attachmentTypes[contentType]
	if !ok {
		return "", contentType, fmt.Errorf("only images and PDF files are allowed, got %s", contentType)
	}
	return kind, contentType, nil
}

// ValidateFileSize validates the file size is within limits
func (v *FileValidator) ValidateFileSize(size int64) error {
	if size < 0 {
		return errors.New("invalid file size")
	}
	if size == 0 {
		return errors.New("empty file")
	}
	if size > v.maxSizeBytes {
		return fmt.Errorf("file size exceeds maximum allowed size (%d bytes)", v.maxSizeBytes)
	}
	return nil
}
