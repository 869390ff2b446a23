package handlers

import (
	"github.com/ashmitsharp/mydaily-api/internal/models"
	"github.com/ashmitsharp/mydaily-api/internal/services"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

var noteFilters = []string{"category_id", "pinned"}

type NoteHandler struct{}

func NewNoteHandler() *NoteHandler {
	return &NoteHandler{}
}

type CreateNoteRequest struct {
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Pinned     bool      `json:"pinned"`
	CategoryID uuid.UUID `json:"category_id"`
}

type PinNoteRequest struct {
	Pinned bool `json:"pinned"`
}

// GetNotes handles GET /v1/notes. Pinned notes come first by default.
func (h *NoteHandler) GetNotes(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	result, state, err := ws.ListNotes(c.Context(), listUpdate(c, noteFilters...))
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, listPayload[services.NoteRow]{ListResult: result, State: state})
}

func (h *NoteHandler) GetNote(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	note, err := ws.Note(c.Context(), id)
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, note)
}

func (h *NoteHandler) CreateNote(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	var req CreateNoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	saved, err := ws.CreateNote(c.Context(), models.Note{
		Title:      req.Title,
		Content:    req.Content,
		Pinned:     req.Pinned,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		return apiError(err)
	}
	return savedResponse(c, saved)
}

func (h *NoteHandler) UpdateNote(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var patch models.NotePatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}
	note, err := ws.UpdateNote(c.Context(), id, patch)
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, note)
}

// PinNote handles PATCH /v1/notes/:id/pin
func (h *NoteHandler) PinNote(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req PinNoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	note, err := ws.SetNotePinned(c.Context(), id, req.Pinned)
	if err != nil {
		return apiError(err)
	}
	return utils.SuccessResponse(c, note)
}

func (h *NoteHandler) DeleteNote(c fiber.Ctx) error {
	ws, err := currentWorkspace(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := ws.DeleteNote(c.Context(), id); err != nil {
		return apiError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
