package handlers

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/middleware"
	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/ashmitsharp/mydaily-api/internal/services"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/ashmitsharp/mydaily-api/internal/workspace"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// currentWorkspace returns the workspace attached by the auth middleware
func currentWorkspace(c fiber.Ctx) (*workspace.Workspace, error) {
	ws := middleware.Workspace(c)
	if ws == nil {
		return nil, utils.NewUnauthorizedError("unauthorized - user not authenticated")
	}
	return ws, nil
}

func parseID(c fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, utils.NewBadRequestError(fmt.Sprintf("invalid %s", param), nil)
	}
	return id, nil
}

func bindJSON(c fiber.Ctx, out any) error {
	if err := c.Bind().JSON(out); err != nil {
		return utils.NewBadRequestError("Invalid request body", err.Error())
	}
	return nil
}

// apiError maps domain errors onto HTTP errors
func apiError(err error) error {
	var validation *services.ValidationError
	var apiErr *utils.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &validation):
		return utils.NewBadRequestError(validation.Error(), fiber.Map{"field": validation.Field})
	case errors.Is(err, repository.ErrNotFound):
		return utils.NewNotFoundError("resource")
	case errors.Is(err, services.ErrPendingFileNotFound):
		return utils.NewNotFoundError("pending file")
	case errors.Is(err, workspace.ErrNoIdentity):
		return utils.NewUnauthorizedError("session has ended")
	case errors.Is(err, workspace.ErrFetchContended):
		return utils.NewUnavailableError("records are changing, try again")
	case errors.Is(err, services.ErrInvalidPin):
		return utils.NewUnauthorizedError(err.Error())
	case errors.Is(err, services.ErrPinAlreadySet), errors.Is(err, services.ErrPinNotSet):
		return utils.NewConflictError(err.Error())
	}
	log.Printf("request failed: %v", err)
	return utils.NewInternalError(err)
}

// savedResponse answers a create. Failed staged attachments turn it into a 207
// that still carries the saved record.
func savedResponse[T any](c fiber.Ctx, saved *workspace.Saved[T]) error {
	if saved.AttachmentErr == nil {
		return utils.CreatedResponse(c, saved.Record)
	}
	var partial *workspace.PartialSaveError
	if errors.As(saved.AttachmentErr, &partial) {
		return utils.PartialResponse(c, saved.Record, partial.Error())
	}
	return utils.PartialResponse(c, saved.Record, saved.AttachmentErr.Error())
}

// Date accepts a calendar date ("2006-01-02") or an RFC 3339 timestamp
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

func (d *Date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	return &d.Time
}

// listUpdate turns list query parameters into a change of the remembered list
// state. An explicit page is only honoured when nothing else reset it.
func listUpdate(c fiber.Ctx, filters ...string) func(*services.ListState) {
	args := c.Request().URI().QueryArgs()
	has := func(key string) bool { return args.Has(key) }

	return func(s *services.ListState) {
		reset := false
		if has("search") {
			reset = s.SetSearch(c.Query("search")) || reset
		}
		for _, name := range filters {
			if has(name) {
				reset = s.SetFilter(name, c.Query(name)) || reset
			}
		}
		if has("sort") || has("order") {
			sort := c.Query("sort", s.Sort)
			order := services.SortOrder(c.Query("order", string(s.Order)))
			s.SetSort(sort, order)
		}
		if has("view") {
			reset = s.SetView(services.ViewMode(c.Query("view"))) || reset
		}
		if has("page_size") {
			if size, err := strconv.Atoi(c.Query("page_size")); err == nil {
				reset = s.SetPageSize(size) || reset
			}
		}
		if has("page") && !reset {
			if page, err := strconv.Atoi(c.Query("page")); err == nil {
				s.SetPage(page)
			}
		}
	}
}

// listPayload is a list page together with the state that produced it
type listPayload[T any] struct {
	services.ListResult[T]
	State services.ListState `json:"state"`
}

// openFormFiles opens every uploaded file of a multipart field. The returned
// func closes them.
func openFormFiles(c fiber.Ctx, field string) ([]services.IncomingFile, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, utils.NewBadRequestError("Expected multipart/form-data", nil)
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, func() {}, utils.NewBadRequestError(fmt.Sprintf("no files in field %q", field), nil)
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	files := make([]services.IncomingFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		files = append(files, services.IncomingFile{Name: fh.Filename, Reader: f})
	}
	return files, closeAll, nil
}
