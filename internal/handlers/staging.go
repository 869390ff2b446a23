package handlers

import (
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
)

// StagingHandler exposes the pending attachment buffer of the current user.
// Staged files are committed by the next transaction, task or note create.
type StagingHandler struct{}

func NewStagingHandler() *StagingHandler {
	return &StagingHandler{}
}

// ListPending handles GET /v1/staging
func (h *StagingHandler) ListPending(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, ws.Pending().Files())
}

// AddPending handles POST /v1/staging with multipart "files". Either every
// file is staged or none is.
func (h *StagingHandler) AddPending(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	files, closeFiles, err := openFormFiles(c, "files")
	defer closeFiles()
	if err != nil {
		return err
	}
	staged, err := ws.Pending().AddFiles(files)
	if err != nil {
		return apiError(err)
	}
	return utils.CreatedResponse(c, staged)
}

// RemovePending handles DELETE /v1/staging/:tempId
func (h *StagingHandler) RemovePending(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "tempId")
	if err != nil {
		return err
	}
	if err := ws.Pending().RemoveFile(id); err != nil {
		return apiError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClearPending handles DELETE /v1/staging
func (h *StagingHandler) ClearPending(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	ws.Pending().ClearPending()
	return c.SendStatus(fiber.StatusNoContent)
}

// Preview handles GET /v1/staging/:tempId/preview and returns a JPEG
// thumbnail of a staged image.
func (h *StagingHandler) Preview(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "tempId")
	if err != nil {
		return err
	}
	preview, err := ws.Pending().Preview(id)
	if err != nil {
		return apiError(err)
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "private, no-store")
	return c.Send(preview)
}
