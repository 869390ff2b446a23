package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var ErrPendingFileNotFound = errors.New("pending file not found")

// Uploader stores one file against an existing owner
type Uploader interface {
	Upload(ctx context.Context, userID uuid.UUID, owner models.Owner, name string, data []byte) (*models.Attachment, error)
}

// IncomingFile is a file handed to the staging buffer
type IncomingFile struct {
	Name   string
	Reader io.Reader
}

// PendingFileInfo describes a staged file to clients
type PendingFileInfo struct {
	TempID      uuid.UUID             `json:"temp_id"`
	Name        string                `json:"name"`
	Size        int64                 `json:"size"`
	ContentType string                `json:"content_type"`
	Type        models.AttachmentType `json:"type"`
	HasPreview  bool                  `json:"has_preview"`
}

type pendingFile struct {
	info    PendingFileInfo
	spool   string
	preview []byte
	release sync.Once
}

// close frees the spool file and the preview. Safe to call more than once.
func (p *pendingFile) close() {
	p.release.Do(func() {
		if p.spool != "" {
			_ = os.Remove(p.spool)
		}
		p.preview = nil
	})
}

// UploadFailure is one file that could not be committed
type UploadFailure struct {
	Name string
	Err  error
}

// BatchUploadError reports every file of a commit that failed
type BatchUploadError struct {
	Failures []UploadFailure
}

func (e *BatchUploadError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Name, f.Err))
	}
	return strings.Join(parts, "; ")
}

// PendingBuffer holds files chosen before their owning record exists
type PendingBuffer struct {
	mu           sync.Mutex
	dir          string
	validator    *FileValidator
	previewWidth int
	files        []*pendingFile
}

func NewPendingBuffer(dir string, validator *FileValidator, previewWidth int) *PendingBuffer {
	if previewWidth <= 0 {
		previewWidth = 320
	}
	return &PendingBuffer{dir: dir, validator: validator, previewWidth: previewWidth}
}

// AddFiles validates and stages every file. Nothing is staged when any file
// is rejected.
func (b *PendingBuffer) AddFiles(files []IncomingFile) ([]PendingFileInfo, error) {
	type accepted struct {
		name   string
		data   []byte
		result *ValidationResult
	}
	var ok []accepted
	var problems []string
	for _, f := range files {
		result, data, err := b.validator.ValidateFile(f.Reader, f.Name)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			problems = append(problems, fmt.Sprintf("%s: %s", f.Name, strings.Join(result.Errors, ", ")))
			continue
		}
		ok = append(ok, accepted{name: f.Name, data: data, result: result})
	}
	if len(problems) > 0 {
		return nil, NewValidationError("files", "%s", strings.Join(problems, "; "))
	}

	staged := make([]*pendingFile, 0, len(ok))
	for _, a := range ok {
		p, err := b.stage(a.name, a.data, a.result)
		if err != nil {
			for _, s := range staged {
				s.close()
			}
			return nil, err
		}
		staged = append(staged, p)
	}

	b.mu.Lock()
	b.files = append(b.files, staged...)
	b.mu.Unlock()

	infos := make([]PendingFileInfo, 0, len(staged))
	for _, p := range staged {
		infos = append(infos, p.info)
	}
	return infos, nil
}

func (b *PendingBuffer) stage(name string, data []byte, result *ValidationResult) (*pendingFile, error) {
	spool, err := os.CreateTemp(b.dir, "mydaily-staging-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create spool file: %w", err)
	}
	if _, err := spool.Write(data); err != nil {
		spool.Close()
		os.Remove(spool.Name())
		return nil, fmt.Errorf("failed to write spool file: %w", err)
	}
	if err := spool.Close(); err != nil {
		os.Remove(spool.Name())
		return nil, fmt.Errorf("failed to write spool file: %w", err)
	}

	p := &pendingFile{
		info: PendingFileInfo{
			TempID:      uuid.New(),
			Name:        name,
			Size:        result.Size,
			ContentType: result.ContentType,
			Type:        result.DetectedType,
		},
		spool: spool.Name(),
	}
	if result.DetectedType == models.AttachmentTypeImage {
		p.preview = b.thumbnail(data)
		p.info.HasPreview = p.preview != nil
	}
	return p, nil
}

// thumbnail returns a JPEG preview, or nil for images the decoder does not
// understand.
func (b *PendingBuffer) thumbnail(data []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil
	}
	if img.Bounds().Dx() > b.previewWidth {
		img = imaging.Resize(img, b.previewWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil
	}
	return buf.Bytes()
}

// RemoveFile drops one staged file and releases its resources
func (b *PendingBuffer) RemoveFile(tempID uuid.UUID) error {
	b.mu.Lock()
	idx := -1
	for i, p := range b.files {
		if p.info.TempID == tempID {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return ErrPendingFileNotFound
	}
	p := b.files[idx]
	b.files = append(b.files[:idx:idx], b.files[idx+1:]...)
	b.mu.Unlock()

	p.close()
	return nil
}

func (b *PendingBuffer) Files() []PendingFileInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	infos := make([]PendingFileInfo, 0, len(b.files))
	for _, p := range b.files {
		infos = append(infos, p.info)
	}
	return infos
}

func (b *PendingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

// Preview returns the JPEG thumbnail of a staged image
func (b *PendingBuffer) Preview(tempID uuid.UUID) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.files {
		if p.info.TempID == tempID {
			if p.preview == nil {
				return nil, ErrPendingFileNotFound
			}
			return p.preview, nil
		}
	}
	return nil, ErrPendingFileNotFound
}

// ClearPending discards every staged file
func (b *PendingBuffer) ClearPending() {
	for _, p := range b.take() {
		p.close()
	}
}

func (b *PendingBuffer) take() []*pendingFile {
	b.mu.Lock()
	defer b.mu.Unlock()
	files := b.files
	b.files = nil
	return files
}

// UploadAllPending commits every staged file to owner, one at a time. A
// failing file does not stop the rest. The buffer is empty afterwards whatever
// the outcome, and failures come back as a *BatchUploadError.
func (b *PendingBuffer) UploadAllPending(ctx context.Context, uploader Uploader, userID uuid.UUID, owner models.Owner) ([]models.Attachment, error) {
	files := b.take()
	uploaded := make([]models.Attachment, 0, len(files))
	var failures []UploadFailure

	for _, p := range files {
		attachment, err := uploadSpooled(ctx, uploader, userID, owner, p)
		p.close()
		if err != nil {
			failures = append(failures, UploadFailure{Name: p.info.Name, Err: err})
			continue
		}
		uploaded = append(uploaded, *attachment)
	}

	if len(failures) > 0 {
		return uploaded, &BatchUploadError{Failures: failures}
	}
	return uploaded, nil
}

func uploadSpooled(ctx context.Context, uploader Uploader, userID uuid.UUID, owner models.Owner, p *pendingFile) (*models.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.spool)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged file: %w", err)
	}
	return uploader.Upload(ctx, userID, owner, p.info.Name, data)
}
