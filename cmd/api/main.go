package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ashmitsharp/mydaily-api/internal/config"
	"github.com/ashmitsharp/mydaily-api/internal/database"
	"github.com/ashmitsharp/mydaily-api/internal/handlers"
	"github.com/ashmitsharp/mydaily-api/internal/middleware"
	"github.com/ashmitsharp/mydaily-api/internal/repository"
	"github.com/ashmitsharp/mydaily-api/internal/services"
	"github.com/ashmitsharp/mydaily-api/internal/utils"
	"github.com/ashmitsharp/mydaily-api/internal/workspace"
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clerk.SetKey(cfg.ClerkSecretKey)
	loc := cfg.Location()

	// Store
	var store *repository.Store
	switch cfg.StoreDriver {
	case "postgres":
		db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBConnectionTimeout)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Println("✓ Connected to database successfully")

		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("✓ Database migrations applied")
		store = repository.New(db)
	default:
		store = repository.NewMemory()
		log.Println("✓ Using in-memory store (data is lost on restart)")
	}

	// Attachment storage
	var storage services.ObjectStorage
	if cfg.S3Bucket != "" {
		s3Storage, err := services.NewStorageService(ctx, cfg.S3Bucket, cfg.S3Region, cfg.AWSEndpoint, cfg.S3PublicBaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize storage service: %v", err)
		}
		storage = s3Storage
		log.Println("✓ Storage service initialized successfully")
	} else {
		storage = services.NewMemoryStorage(fmt.Sprintf("http://localhost:%d/files", cfg.Port))
		log.Println("✓ Using in-memory attachment storage")
	}

	validator := services.NewFileValidator(cfg.MaxAttachmentBytes)
	attachments := services.NewAttachmentService(store.Attachments, storage, validator)
	if cfg.S3Bucket != "" && cfg.S3PublicBaseURL == "" && cfg.AttachmentURLTTL > 0 {
		attachments.SignDownloads(cfg.AttachmentURLTTL)
		log.Printf("✓ Attachment downloads use presigned URLs (%s)", cfg.AttachmentURLTTL)
	}

	var dashboardCache *ristretto.Cache[string, services.Dashboard]
	if cfg.DashboardCache {
		dashboardCache, err = ristretto.NewCache(&ristretto.Config[string, services.Dashboard]{
			NumCounters: 10_000,
			MaxCost:     1_000,
			BufferItems: 64,
		})
		if err != nil {
			log.Fatalf("Failed to initialize dashboard cache: %v", err)
		}
		defer dashboardCache.Close()
		log.Println("✓ Dashboard cache initialized successfully")
	}

	workspaces := workspace.NewManager(workspace.Config{
		Store:          store,
		Attachments:    attachments,
		Location:       loc,
		DashboardCache: dashboardCache,
		StagingDir:     cfg.StagingDir,
		PreviewWidth:   cfg.PreviewMaxWidth,
	})
	defer workspaces.Close()

	pinGate := services.NewPinGate(store.SessionStates, cfg.PinMaxAttempts, cfg.PinLockout)
	settings := services.NewSettingsService(store.SessionStates)
	unlockTokens := middleware.NewUnlockTokens(cfg.UnlockTokenSecret, cfg.UnlockTokenTTL)
	log.Println("✓ Services initialized successfully")

	// Initialize handlers
	usersHandler := handlers.NewUsersHandler(store.Users)
	pinHandler := handlers.NewPinHandler(pinGate, unlockTokens, services.ClerkSessions{}, workspaces)
	settingsHandler := handlers.NewSettingsHandler(settings)
	accountHandler := handlers.NewAccountHandler()
	categoryHandler := handlers.NewCategoryHandler()
	transactionHandler := handlers.NewTransactionHandler(services.NewParser(), loc)
	taskHandler := handlers.NewTaskHandler()
	noteHandler := handlers.NewNoteHandler()
	attachmentHandler := handlers.NewAttachmentHandler(cfg.MaxAttachmentBytes)
	stagingHandler := handlers.NewStagingHandler()
	dashboardHandler := handlers.NewDashboardHandler(loc)

	app := fiber.New(fiber.Config{
		AppName:      "MyDaily API v1.0",
		ErrorHandler: utils.ErrorHandler,
		// Room for a batch of attachments plus multipart overhead
		BodyLimit: int(cfg.MaxAttachmentBytes)*10 + 1024*1024,
	})

	// Apply global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health check endpoint (public)
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "mydaily-api",
		})
	})

	// API v1 routes
	v1 := app.Group("/v1")

	v1.Get("/ping", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})

	// Internal routes (Clerk webhook callbacks)
	internal := v1.Group("/internal", middleware.WebhookAuth(cfg.WebhookSecret))
	internal.Post("/users", usersHandler.CreateUser)
	internal.Put("/users/:id", usersHandler.UpdateUser)

	// Signed in, PIN not required
	protected := v1.Group("", middleware.ClerkAuth(middleware.AuthConfig{
		Verify:     middleware.ClerkVerifier(),
		Users:      store.Users,
		Workspaces: workspaces,
		Timeout:    cfg.SessionCheckTimeout,
	}))
	protected.Get("/user", usersHandler.GetUser)
	protected.Get("/pin", pinHandler.GetStatus)
	protected.Post("/pin/setup", pinHandler.Setup)
	protected.Post("/pin/unlock", pinHandler.Unlock)
	protected.Post("/pin/logout", pinHandler.Logout)
	protected.Get("/settings/theme", settingsHandler.GetTheme)
	protected.Put("/settings/theme", settingsHandler.SetTheme)

	// Signed in and unlocked
	unlocked := protected.Group("", middleware.RequireUnlock(unlockTokens))

	unlocked.Get("/dashboard", dashboardHandler.GetDashboard)
	unlocked.Get("/summary", dashboardHandler.GetSummary)

	unlocked.Get("/accounts", accountHandler.ListAccounts)
	unlocked.Post("/accounts", accountHandler.CreateAccount)
	unlocked.Put("/accounts/:id", accountHandler.UpdateAccount)
	unlocked.Delete("/accounts/:id", accountHandler.DeleteAccount)

	unlocked.Get("/categories", categoryHandler.ListCategories)
	unlocked.Post("/categories", categoryHandler.CreateCategory)
	unlocked.Put("/categories/:id", categoryHandler.UpdateCategory)
	unlocked.Delete("/categories/:id", categoryHandler.DeleteCategory)

	unlocked.Get("/transactions", transactionHandler.GetTransactions)
	unlocked.Get("/transactions/export", transactionHandler.ExportTransactions)
	unlocked.Post("/transactions/import", transactionHandler.ImportTransactions)
	unlocked.Get("/transactions/:id", transactionHandler.GetTransaction)
	unlocked.Post("/transactions", transactionHandler.CreateTransaction)
	unlocked.Put("/transactions/:id", transactionHandler.UpdateTransaction)
	unlocked.Delete("/transactions/:id", transactionHandler.DeleteTransaction)

	unlocked.Get("/tasks", taskHandler.GetTasks)
	unlocked.Get("/tasks/:id", taskHandler.GetTask)
	unlocked.Post("/tasks", taskHandler.CreateTask)
	unlocked.Put("/tasks/:id", taskHandler.UpdateTask)
	unlocked.Patch("/tasks/:id/complete", taskHandler.CompleteTask)
	unlocked.Delete("/tasks/:id", taskHandler.DeleteTask)

	unlocked.Get("/notes", noteHandler.GetNotes)
	unlocked.Get("/notes/:id", noteHandler.GetNote)
	unlocked.Post("/notes", noteHandler.CreateNote)
	unlocked.Put("/notes/:id", noteHandler.UpdateNote)
	unlocked.Patch("/notes/:id/pin", noteHandler.PinNote)
	unlocked.Delete("/notes/:id", noteHandler.DeleteNote)

	// The download route must be registered before the owner listing, which
	// has the same shape.
	unlocked.Get("/attachments/:id/download", attachmentHandler.DownloadAttachment)
	unlocked.Get("/attachments/:kind/:ownerId", attachmentHandler.ListAttachments)
	unlocked.Post("/attachments/:kind/:ownerId", attachmentHandler.UploadAttachments)
	unlocked.Delete("/attachments/:id", attachmentHandler.DeleteAttachment)

	unlocked.Get("/staging", stagingHandler.ListPending)
	unlocked.Post("/staging", stagingHandler.AddPending)
	unlocked.Delete("/staging", stagingHandler.ClearPending)
	unlocked.Delete("/staging/:tempId", stagingHandler.RemovePending)
	unlocked.Get("/staging/:tempId/preview", stagingHandler.Preview)

	log.Println("✓ All routes configured successfully")

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Println("")
	log.Printf("🚀 MyDaily API is running on %s", addr)
	log.Printf("   Health check: http://localhost%s/health", addr)
	log.Printf("   API base: http://localhost%s/v1", addr)
	if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
