package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/google/uuid"
)

// URLSigner is implemented by object stores that can hand out short-lived
// download links
type URLSigner interface {
	GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// AttachmentService owns the blob + record pair behind every attachment
type AttachmentService struct {
	records   repository.Attachments
	storage   ObjectStorage
	validator *FileValidator
	signTTL   time.Duration
}

func NewAttachmentService(records repository.Attachments, storage ObjectStorage, validator *FileValidator) *AttachmentService {
	return &AttachmentService{records: records, storage: storage, validator: validator}
}

func (s *AttachmentService) Validator() *FileValidator {
	return s.validator
}

// SignDownloads makes DownloadURL hand out presigned links valid for ttl when
// the storage can sign them. Zero keeps downloads streamed.
func (s *AttachmentService) SignDownloads(ttl time.Duration) {
	s.signTTL = ttl
}

// DownloadURL returns a presigned link to the attachment, or "" when the
// content has to be streamed through Open.
func (s *AttachmentService) DownloadURL(ctx context.Context, userID, attachmentID uuid.UUID) (string, error) {
	signer, ok := s.storage.(URLSigner)
	if !ok || s.signTTL <= 0 {
		return "", nil
	}
	attachment, err := s.records.GetByID(ctx, userID, attachmentID)
	if err != nil {
		return "", err
	}
	url, err := signer.GeneratePresignedURL(ctx, attachment.Path, s.signTTL)
	if err != nil {
		return "", fmt.Errorf("sign attachment %s: %w", attachment.Name, err)
	}
	return url, nil
}

// Upload validates data, stores the blob and records it against owner. A blob
// whose record cannot be written is removed again.
func (s *AttachmentService) Upload(ctx context.Context, userID uuid.UUID, owner models.Owner, name string, data []byte) (*models.Attachment, error) {
	if owner == nil {
		return nil, NewValidationError("owner", "attachment owner is required")
	}
	result := s.validator.ValidateBytes(data, name)
	if err := result.Err(name); err != nil {
		return nil, err
	}

	key, err := GenerateAttachmentKey(userID.String(), string(owner.Kind()), name)
	if err != nil {
		return nil, err
	}

	url, err := s.storage.PutObject(ctx, key, result.ContentType, bytes.NewReader(data), result.Size)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}

	attachment := &models.Attachment{
		UserID: userID,
		Owner:  owner,
		Name:   name,
		Type:   result.DetectedType,
		URL:    url,
		Path:   key,
		Size:   result.Size,
	}
	if err := s.records.Create(ctx, attachment); err != nil {
		if delErr := s.storage.DeleteFile(ctx, key); delErr != nil {
			log.Printf("attachments: orphaned blob %s: %v", key, delErr)
		}
		return nil, fmt.Errorf("save attachment %s: %w", name, err)
	}

	return attachment, nil
}

func (s *AttachmentService) ListFor(ctx context.Context, userID uuid.UUID, owner models.Owner) ([]models.Attachment, error) {
	list, err := s.records.ListByOwner(ctx, userID, owner)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	if list == nil {
		list = []models.Attachment{}
	}
	return list, nil
}

// ListAll returns every attachment of the user grouped by owner
func (s *AttachmentService) ListAll(ctx context.Context, userID uuid.UUID) (map[models.OwnerKind]map[uuid.UUID][]models.Attachment, error) {
	list, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	grouped := map[models.OwnerKind]map[uuid.UUID][]models.Attachment{}
	for _, a := range list {
		byID, ok := grouped[a.Owner.Kind()]
		if !ok {
			byID = map[uuid.UUID][]models.Attachment{}
			grouped[a.Owner.Kind()] = byID
		}
		byID[a.Owner.OwnerID()] = append(byID[a.Owner.OwnerID()], a)
	}
	return grouped, nil
}

// Open returns the record and the content of one attachment. The caller
// closes the reader.
func (s *AttachmentService) Open(ctx context.Context, userID, attachmentID uuid.UUID) (*models.Attachment, io.ReadCloser, error) {
	attachment, err := s.records.GetByID(ctx, userID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.storage.DownloadFile(ctx, attachment.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("download attachment %s: %w", attachment.Name, err)
	}
	return attachment, body, nil
}

// Delete removes the blob first, then the record
func (s *AttachmentService) Delete(ctx context.Context, userID, attachmentID uuid.UUID) (*models.Attachment, error) {
	attachment, err := s.records.GetByID(ctx, userID, attachmentID)
	if err != nil {
		return nil, err
	}
	if err := s.storage.DeleteFile(ctx, attachment.Path); err != nil {
		return nil, fmt.Errorf("delete attachment %s: %w", attachment.Name, err)
	}
	if err := s.records.Delete(ctx, userID, attachmentID); err != nil {
		return nil, fmt.Errorf("delete attachment %s: %w", attachment.Name, err)
	}
	return attachment, nil
}

// DeleteAllFor removes every attachment of owner: blobs in one bulk call,
// then the records. The owner itself is left to the caller.
func (s *AttachmentService) DeleteAllFor(ctx context.Context, userID uuid.UUID, owner models.Owner) error {
	list, err := s.records.ListByOwner(ctx, userID, owner)
	if err != nil {
		return fmt.Errorf("list attachments: %w", err)
	}
	if len(list) == 0 {
		return nil
	}

	keys := make([]string, 0, len(list))
	for _, a := range list {
		keys = append(keys, a.Path)
	}
	if err := s.storage.DeleteFiles(ctx, keys); err != nil {
		return fmt.Errorf("delete attachment files: %w", err)
	}
	if err := s.records.DeleteByOwner(ctx, userID, owner); err != nil {
		return fmt.Errorf("delete attachment records: %w", err)
	}
	return nil
}
