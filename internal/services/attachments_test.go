package services

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingRecords is an attachment repository whose writes always fail
type failingRecords struct {
	repository.Attachments
}

func (failingRecords) Create(ctx context.Context, a *models.Attachment) error {
	return errors.New("connection reset")
}

// signingStorage is a memory store that can also presign download links
type signingStorage struct {
	*MemoryStorage
	fail bool
}

func (s signingStorage) GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if s.fail {
		return "", errors.New("credentials expired")
	}
	return "https://bucket.local/" + key + "?X-Amz-Expires=" + strconv.Itoa(int(expiry.Seconds())), nil
}

func newTestAttachments() (*AttachmentService, *MemoryStorage) {
	storage := NewMemoryStorage("http://files.local")
	service := NewAttachmentService(repository.NewMemory().Attachments, storage, NewFileValidator(1024*1024))
	return service, storage
}

func TestAttachmentService_Upload(t *testing.T) {
	ctx := context.Background()
	service, storage := newTestAttachments()
	userID := uuid.New()
	owner := models.TransactionOwner{ID: uuid.New()}

	attachment, err := service.Upload(ctx, userID, owner, "receipt.pdf", pdfContent)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, attachment.ID)
	assert.Equal(t, models.AttachmentTypePDF, attachment.Type)
	assert.Equal(t, int64(len(pdfContent)), attachment.Size)
	assert.True(t, strings.HasPrefix(attachment.Path, "attachments/"+userID.String()+"/transaction/"))
	assert.True(t, strings.HasSuffix(attachment.Path, "-receipt.pdf"))
	assert.Equal(t, "http://files.local/"+attachment.Path, attachment.URL)
	assert.True(t, storage.Has(attachment.Path))

	list, err := service.ListFor(ctx, userID, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, attachment.ID, list[0].ID)

	other, err := service.ListFor(ctx, uuid.New(), owner)
	require.NoError(t, err)
	assert.NotNil(t, other)
	assert.Empty(t, other, "attachments are scoped to their user")
}

func TestAttachmentService_UploadRejects(t *testing.T) {
	ctx := context.Background()
	service, storage := newTestAttachments()
	owner := models.NoteOwner{ID: uuid.New()}

	tests := []struct {
		name  string
		owner models.Owner
		file  string
		data  []byte
	}{
		{name: "no owner", owner: nil, file: "a.pdf", data: pdfContent},
		{name: "wrong content", owner: owner, file: "a.pdf", data: []byte("plain text")},
		{name: "wrong extension", owner: owner, file: "a.docx", data: pdfContent},
		{name: "too large", owner: owner, file: "a.pdf", data: append(append([]byte{}, pdfContent...), make([]byte, 1024*1024)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Upload(ctx, uuid.New(), tt.owner, tt.file, tt.data)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
	assert.Equal(t, 0, storage.Len())
}

func TestAttachmentService_UploadRemovesOrphanedBlob(t *testing.T) {
	storage := NewMemoryStorage("http://files.local")
	service := NewAttachmentService(failingRecords{}, storage, NewFileValidator(1024*1024))

	_, err := service.Upload(context.Background(), uuid.New(), models.TaskOwner{ID: uuid.New()}, "a.pdf", pdfContent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 0, storage.Len())
}

func TestAttachmentService_OpenAndDelete(t *testing.T) {
	ctx := context.Background()
	service, storage := newTestAttachments()
	userID := uuid.New()
	attachment, err := service.Upload(ctx, userID, models.TaskOwner{ID: uuid.New()}, "scan.pdf", pdfContent)
	require.NoError(t, err)

	_, _, err = service.Open(ctx, uuid.New(), attachment.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	record, body, err := service.Open(ctx, userID, attachment.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, pdfContent, data)
	assert.Equal(t, "scan.pdf", record.Name)

	deleted, err := service.Delete(ctx, userID, attachment.ID)
	require.NoError(t, err)
	assert.Equal(t, attachment.ID, deleted.ID)
	assert.Equal(t, 0, storage.Len())

	_, err = service.Delete(ctx, userID, attachment.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAttachmentService_ListAllAndDeleteAllFor(t *testing.T) {
	ctx := context.Background()
	service, storage := newTestAttachments()
	userID := uuid.New()
	txn := models.TransactionOwner{ID: uuid.New()}
	note := models.NoteOwner{ID: uuid.New()}

	for _, upload := range []struct {
		owner models.Owner
		name  string
	}{
		{txn, "a.pdf"}, {txn, "b.pdf"}, {note, "c.pdf"},
	} {
		_, err := service.Upload(ctx, userID, upload.owner, upload.name, pdfContent)
		require.NoError(t, err)
	}

	grouped, err := service.ListAll(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, grouped[models.OwnerKindTransaction][txn.ID], 2)
	assert.Len(t, grouped[models.OwnerKindNote][note.ID], 1)
	assert.Empty(t, grouped[models.OwnerKindTask])

	require.NoError(t, service.DeleteAllFor(ctx, userID, txn))
	assert.Equal(t, 1, storage.Len())

	remaining, err := service.ListAll(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, remaining[models.OwnerKindTransaction])
	assert.Len(t, remaining[models.OwnerKindNote][note.ID], 1)

	assert.NoError(t, service.DeleteAllFor(ctx, userID, models.TaskOwner{ID: uuid.New()}), "nothing to delete")
}

func TestAttachmentService_DownloadURL(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	owner := models.NoteOwner{ID: uuid.New()}

	tests := []struct {
		name    string
		signer  bool
		fail    bool
		ttl     time.Duration
		want    string
		wantErr string
	}{
		{name: "storage cannot sign", ttl: time.Minute},
		{name: "signing turned off", signer: true},
		{name: "presigned", signer: true, ttl: 15 * time.Minute, want: "?X-Amz-Expires=900"},
		{name: "signing fails", signer: true, fail: true, ttl: time.Minute, wantErr: "sign attachment scan.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memory := NewMemoryStorage("http://files.local")
			var storage ObjectStorage = memory
			if tt.signer {
				storage = signingStorage{MemoryStorage: memory, fail: tt.fail}
			}
			service := NewAttachmentService(repository.NewMemory().Attachments, storage, NewFileValidator(1024*1024))
			service.SignDownloads(tt.ttl)

			attachment, err := service.Upload(ctx, userID, owner, "scan.pdf", pdfContent)
			require.NoError(t, err)

			url, err := service.DownloadURL(ctx, userID, attachment.ID)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.want == "" {
				assert.Empty(t, url)
				return
			}
			assert.Equal(t, "https://bucket.local/"+attachment.Path+tt.want, url)
		})
	}
}

func TestAttachmentService_DownloadURLScopedToUser(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryStorage("")
	service := NewAttachmentService(repository.NewMemory().Attachments, signingStorage{MemoryStorage: memory}, NewFileValidator(1024*1024))
	service.SignDownloads(time.Minute)

	attachment, err := service.Upload(ctx, uuid.New(), models.TaskOwner{ID: uuid.New()}, "scan.pdf", pdfContent)
	require.NoError(t, err)

	_, err = service.DownloadURL(ctx, uuid.New(), attachment.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
