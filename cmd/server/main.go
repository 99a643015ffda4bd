package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"legalflow/internal"
	"legalflow/internal/config"
	"legalflow/internal/handlers"
	"legalflow/internal/mailer"
	"legalflow/internal/services"
	"legalflow/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	if err := internal.InitDB(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer internal.CloseDB()
	db := internal.DB

	// Object storage is optional; without a bucket signed documents are
	// simply not archived.
	var gcsClient *storage.GCSClient
	if cfg.GCS.BucketName != "" {
		gcsClient, err = storage.NewGCSClient(context.Background(), cfg.GCS.BucketName, cfg.GCS.ProjectID, cfg.GCS.CredentialsPath)
		if err != nil {
			logger.Warn("object storage unavailable, signed documents will not be archived", "error", err)
			gcsClient = nil
		} else {
			defer gcsClient.Close()
		}
	}

	pdfService, err := services.NewPDFService(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout)
	if err != nil {
		logger.Warn("pdf conversion unavailable", "error", err)
		pdfService = nil
	}

	var mail mailer.Mailer
	if cfg.Email.ResendAPIKey != "" {
		mail = mailer.NewResendMailer(cfg.Email.ResendAPIKey)
	} else {
		logger.Warn("RESEND_API_KEY not set, emails will be logged instead of sent")
		mail = mailer.NewLogMailer(logger)
	}
	allowlist := mailer.Allowlist{
		Testing:          cfg.Email.Testing,
		AllowedRecipient: cfg.Email.AllowedRecipient,
	}

	documentService := services.NewDocumentService(db)
	tokenService := services.NewTokenService(db, cfg.Signing.TokenTTL)
	artifactService := services.NewArtifactService(db, gcsClient, logger)
	emailService := services.NewEmailService(db, documentService, tokenService, mail, allowlist,
		cfg.Email.SenderName, cfg.Email.SenderEmail, cfg.Server.BaseURL, logger)
	activityLogService := services.NewActivityLogService(db)

	documentsHandler := handlers.NewDocumentsHandler(documentService, emailService, pdfService, artifactService)
	signHandler := handlers.NewSignHandler(tokenService, artifactService)
	logsHandler := handlers.NewLogsHandler(activityLogService, documentService)

	// Soft-deleted documents are purged after 30 days.
	retentionService := services.NewRetentionService(db, artifactService, 30*24*time.Hour, logger)
	retentionService.Start()
	defer retentionService.Stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(activityLogService.LoggingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// Public signing endpoints, gated by the access token alone.
	sign := v1.Group("/sign")
	{
		sign.GET("/:documentId", signHandler.Resolve)
		sign.POST("/:documentId", signHandler.Sign)
		sign.GET("/:documentId/download", signHandler.Download)
	}

	// Everything else requires an authenticated owner.
	authed := v1.Group("")
	authed.Use(handlers.RequireAuth(cfg.Auth.JWTSecret))
	{
		authed.POST("/documents", documentsHandler.Create)
		authed.GET("/documents", documentsHandler.List)
		authed.GET("/documents/:documentId", documentsHandler.Get)
		authed.PUT("/documents/:documentId", documentsHandler.Update)
		authed.DELETE("/documents/:documentId", documentsHandler.Delete)

		authed.POST("/documents/:documentId/company-sign", documentsHandler.CompanySign)
		authed.POST("/documents/:documentId/client-sign", documentsHandler.ClientSign)
		authed.POST("/documents/:documentId/send", documentsHandler.Send)

		authed.GET("/documents/:documentId/download", documentsHandler.Download)
		authed.GET("/documents/:documentId/pdf", documentsHandler.DownloadPDF)
		authed.GET("/documents/:documentId/archive", documentsHandler.Archive)
		authed.GET("/documents/:documentId/logs", logsHandler.GetDocumentLogs)

		authed.GET("/dashboard/stats", documentsHandler.Stats)

		authed.GET("/logs", logsHandler.GetAllLogs)
		authed.GET("/logs/stats", logsHandler.GetLogStats)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
}
