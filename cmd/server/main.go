package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"hootqna/config"
	"hootqna/handlers"
	"hootqna/internal/discord"
	"hootqna/internal/extract"
	"hootqna/internal/provider"
	"hootqna/internal/store"
	"hootqna/middleware"
)

func main() {
	config.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database at %s: %v", cfg.DBPath, err)
	}
	defer st.Close()

	client := provider.NewClient(cfg.APIKey, cfg.IndexID, cfg.ProviderBaseURL)
	extractor := extract.New(cfg.SnippetDir, cfg.WorkDir, config.Log)
	relay := discord.NewClient(cfg.DiscordEndpoint, cfg.DiscordChannelID, cfg.DiscordBotToken)

	h := handlers.NewApplicationHandler(client, st, extractor, relay, config.Log)
	h.GuideDir = cfg.GuideDir
	h.WorkDir = cfg.WorkDir
	h.BatchWorkers = cfg.BatchWorkers
	h.MaxVideoDuration = cfg.MaxVideoDuration

	app := fiber.New(fiber.Config{
		BodyLimit: 2 * 1024 * 1024 * 1024, // uploads are whole lecture videos
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*", // Allow all origins for development
		AllowHeaders: "Origin, Content-Type, Accept, X-User-ID",
	}))
	app.Use(middleware.RequestLogger())

	// Health check route
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Video study service is healthy",
		})
	})

	// API v1 routes
	apiV1 := app.Group("/api/v1")

	// Video upload and registry routes
	apiV1.Post("/videos/upload", h.UploadVideo)
	apiV1.Post("/videos/batch", h.UploadVideoBatch)
	apiV1.Get("/videos", h.ListVideos)
	apiV1.Get("/videos/:videoId", h.GetVideo)

	// Analysis routes
	apiV1.Post("/videos/:videoId/analysis/:kind", h.RunAnalysis)
	apiV1.Get("/videos/:videoId/timestamps", h.GetTimestamps)

	// Segment and snippet routes
	apiV1.Post("/segments/parse", h.ParseSegments)
	apiV1.Post("/segments/extract", h.ExtractSegments)
	apiV1.Get("/snippets", h.ListSnippets)
	apiV1.Delete("/snippets", h.ClearSnippets)

	// Q&A search
	apiV1.Post("/search", h.SearchVideo)

	// Study guide and Discord relay
	apiV1.Post("/videos/:videoId/study-guide", h.BuildStudyGuide)
	apiV1.Get("/discord/status", h.DiscordStatus)

	config.Log.Infof("Starting server on %s", cfg.ListenAddr)
	log.Fatal(app.Listen(cfg.ListenAddr))
}
