package handlers

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
)

// AttachmentHandler manages attachments of records that already exist
type AttachmentHandler struct {
	maxBytes int64
}

func NewAttachmentHandler(maxBytes int64) *AttachmentHandler {
	return &AttachmentHandler{maxBytes: maxBytes}
}

func parseOwner(c fiber.Ctx) (models.Owner, error) {
	id, err := parseID(c, "ownerId")
	if err != nil {
		return nil, err
	}
	owner, err := models.OwnerFromParts(c.Params("kind"), id)
	if err != nil {
		return nil, utils.NewBadRequestError("kind must be transaction, task or note", nil)
	}
	return owner, nil
}

// ListAttachments handles GET /v1/attachments/:kind/:ownerId
func (h *AttachmentHandler) ListAttachments(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	owner, err := parseOwner(c)
	if err != nil {
		return err
	}
	list, err := ws.AttachmentsFor(c.Context(), owner)
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, list)
}

// UploadAttachments handles POST /v1/attachments/:kind/:ownerId with one or
// more multipart "files". Files are stored one by one; the first failure
// stops the request.
func (h *AttachmentHandler) UploadAttachments(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	owner, err := parseOwner(c)
	if err != nil {
		return err
	}
	files, closeFiles, err := openFormFiles(c, "files")
	defer closeFiles()
	if err != nil {
		return err
	}

	uploaded := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		data, err := io.ReadAll(io.LimitReader(f.Reader, h.maxBytes+1))
		if err != nil {
			return apiError(fmt.Errorf("read %s: %w", f.Name, err))
		}
		attachment, err := ws.UploadAttachment(c.Context(), owner, f.Name, data)
		if err != nil {
			return apiError(err)
		}
		uploaded = append(uploaded, *attachment)
	}
	return utils.CreatedResponse(c, uploaded)
}

// DownloadAttachment handles GET /v1/attachments/:id/download. Private
// buckets answer with a redirect to a presigned link; otherwise the stored
// file is streamed.
func (h *AttachmentHandler) DownloadAttachment(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	url, err := ws.AttachmentDownloadURL(c.Context(), id)
	if err != nil {
		return apiError(err)
	}
	if url != "" {
		return c.Redirect().Status(fiber.StatusFound).To(url)
	}

	attachment, body, err := ws.OpenAttachment(c.Context(), id)
	if err != nil {
		return apiError(err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(attachment.Name)))
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename=%q`, attachment.Name))
	return c.SendStream(body, int(attachment.Size))
}

// DeleteAttachment handles DELETE /v1/attachments/:id
func (h *AttachmentHandler) DeleteAttachment(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := ws.DeleteAttachment(c.Context(), id); err != nil {
		return apiError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
