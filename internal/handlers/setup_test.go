package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashmitsharp/mydaily-api/internal/middleware"
	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/ashmitsharp/mydaily-api/internal/services"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/ashmitsharp/mydaily-api/internal/workspace"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Wednesday 15 December 2025, 10:00 in Jakarta
var testNow = time.Date(2025, 12, 15, 3, 0, 0, 0, time.UTC)

var jakarta = time.FixedZone("WIB", 7*60*60)

var pdfContent = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n")

type testEnv struct {
	store       *repository.Store
	storage     *services.MemoryStorage
	attachments *services.AttachmentService
	ws          *workspace.Workspace
	userID      uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	storage := services.NewMemoryStorage("http://localhost:8080/files")
	return newTestEnvWithStorage(t, storage, storage)
}

// newTestEnvWithStorage lets a test wrap the memory storage, for example to
// make some uploads fail.
func newTestEnvWithStorage(t *testing.T, storage *services.MemoryStorage, objects services.ObjectStorage) *testEnv {
	t.Helper()
	store := repository.NewMemory()
	attachments := services.NewAttachmentService(store.Attachments, objects, services.NewFileValidator(1024*1024))

	userID := uuid.New()
	ws := workspace.New(workspace.Principal{UserID: userID, ClerkUserID: "user_test", SessionID: "sess_test"}, workspace.Config{
		Store:       store,
		Attachments: attachments,
		Location:    jakarta,
		Now:         func() time.Time { return testNow },
		StagingDir:  t.TempDir(),
	})
	t.Cleanup(ws.Pending().ClearPending)
	return &testEnv{store: store, storage: storage, attachments: attachments, ws: ws, userID: userID}
}

// app returns a Fiber app whose requests carry the env's workspace the way
// ClerkAuth attaches it.
func (e *testEnv) app() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	app.Use(func(c fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, e.userID)
		c.Locals(middleware.LocalClerkUserID, "user_test")
		c.Locals(middleware.LocalSessionID, "sess_test")
		c.Locals(middleware.LocalWorkspace, e.ws)
		return c.Next()
	})
	return app
}

func jsonRequest(method, target string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type formFile struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, method, target, field string, files ...formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := w.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// do runs req and decodes the JSON envelope
func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]interface{}
	if resp.StatusCode != fiber.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	}
	return resp.StatusCode, result
}

func dataMap(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := result["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", result)
	return data
}

func pngImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
