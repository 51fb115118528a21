package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"chess-scout/browser"
	"chess-scout/config"
	"chess-scout/importer"
	"chess-scout/llm"
	"chess-scout/logging"
	"chess-scout/scraper"
	"chess-scout/services"
	"chess-scout/storage"
)

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	// Optionale Backends
	var store services.SnapshotStore
	if cfg.PersistenceEnabled() {
		db, err := storage.Open(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		store = storage.NewRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set, snapshots are not stored")
	}

	var publisher services.DocumentPublisher
	if cfg.PublishingEnabled() {
		s3Client, err := storage.NewS3Client(context.Background(), storage.EndpointFromConfig(cfg))
		if err != nil {
			logger.Fatal("S3 client creation failed", zap.Error(err))
		}
		publisher = storage.NewPublisher(s3Client, cfg, logger)
	}

	// Browser und Services
	b, err := browser.Launch(cfg, logger)
	if err != nil {
		logger.Fatal("Browser launch failed", zap.Error(err))
	}
	defer b.Close()

	extractor := scraper.NewExtractor(b, scraper.OptionsFromConfig(cfg), logger)
	scrapeService := services.NewScrapeService(cfg, extractor, store, publisher, logger)
	imp := importer.NewImporter(llm.NewClient(cfg, logger), logger)
	importService := services.NewImportService(imp, store, publisher, logger)

	router := setupRouter(cfg, scrapeService, importService, store)

	// Setup Cron
	if len(cfg.Tracked()) > 0 {
		cronScheduler := cron.New()
		_, err := cronScheduler.AddFunc(cfg.CronSchedule, func() {
			logger.Info("Running scheduled scrape job...", zap.Strings("players", cfg.Tracked()))
			count, err := scrapeService.RunTracked(context.Background())
			if err != nil {
				logger.Error("Cron job failed", zap.Error(err))
			} else {
				logger.Info("Cron job completed", zap.Int("games", count))
			}
		})
		if err != nil {
			logger.Fatal("Invalid CRON_SCHEDULE", zap.String("schedule", cfg.CronSchedule), zap.Error(err))
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	logger.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      cfg.OllamaTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupRouter(cfg *config.Config, scrapes *services.ScrapeService, imports *services.ImportService, store services.SnapshotStore) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	setupPlayerRoutes(router, scrapes, store)
	setupImportRoutes(router, imports)
	return router
}

func setupPlayerRoutes(router *gin.Engine, scrapes *services.ScrapeService, store services.SnapshotStore) {
	rg := router.Group("/players")
	rg.POST("/:id/scrape", func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("id"))
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player id is required"})
			return
		}
		if err := scrapes.Start(id); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "Scrape triggered.", "player_id": id})
	})
	rg.GET("/:id/games", func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
			return
		}
		snap, err := store.LatestSnapshot(c.Request.Context(), c.Param("id"))
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no games stored for player"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", snap.Document)
	})
	rg.GET("/:id/snapshots", func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		snaps, err := store.ListSnapshots(c.Request.Context(), c.Param("id"), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snaps)
	})
}

type importRequest struct {
	Text string `json:"text"`
}

func setupImportRoutes(router *gin.Engine, imports *services.ImportService) {
	router.POST("/imports", func(c *gin.Context) {
		var req importRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, importer.Failure("invalid request body"))
			return
		}
		runID, res := imports.Run(c.Request.Context(), req.Text)
		c.Header("X-Run-ID", runID)
		c.JSON(http.StatusOK, res)
	})
}
