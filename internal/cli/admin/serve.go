package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/studyloop/mentor/internal/api/handlers"
	"github.com/studyloop/mentor/internal/config"
	"github.com/studyloop/mentor/internal/extract"
	"github.com/studyloop/mentor/internal/jobs"
	"github.com/studyloop/mentor/internal/notify"
	"github.com/studyloop/mentor/internal/openai"
	"github.com/studyloop/mentor/internal/repository"
	"github.com/studyloop/mentor/internal/server"
	"github.com/studyloop/mentor/internal/service"
	"github.com/studyloop/mentor/internal/storage"
	"github.com/studyloop/mentor/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the mentor API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	fragmentRepo := repository.NewFragmentRepository(pool)
	if err := fragmentRepo.EnsureCollection(ctx, cfg.EmbeddingDims); err != nil {
		return fmt.Errorf("vector index check failed: %w", err)
	}

	aiClient := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDims,
		ChatModel:           cfg.ChatModel,
	})

	extractor := extract.NewService(aiClient)

	gate := service.NewRetrievalGate(aiClient, fragmentRepo, service.GateConfig{
		TopK:           cfg.RetrievalTopK,
		ScoreThreshold: cfg.ScoreThreshold,
		MinTopScore:    cfg.MinTopScore,
	})

	ingestSvc := service.NewIngestService(extractor, aiClient, fragmentRepo, &service.UUIDGenerator{}, service.ChunkConfig{
		MaxChars:  cfg.ChunkMaxChars,
		Overlap:   cfg.ChunkOverlap,
		MaxChunks: cfg.ChunkMaxChunks,
	})
	answerSvc := service.NewAnswerService(gate, aiClient)

	var notifier service.PlanNotifier
	if cfg.HasWebhook() {
		notifier = notify.NewWebhookNotifier(cfg.WebhookURL)
		log.Printf("plan webhook configured: %s", cfg.WebhookURL)
	}
	planSvc := service.NewPlanService(gate, aiClient, notifier)

	var archiver handlers.UploadArchiver
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiver = s3Client
	}

	routerCfg := server.RouterConfig{
		DocumentsHandler: handlers.NewDocumentsHandler(extractor, extractor, ingestSvc, archiver, cfg.DocsDir),
		QueryHandler:     handlers.NewQueryHandler(answerSvc),
		PlanHandler:      handlers.NewPlanHandler(planSvc),
	}

	router := server.NewRouter(routerCfg)

	var scanWorker *jobs.Worker
	if cfg.ScanInterval > 0 {
		scanner := jobs.NewDirScanner(cfg.DocsDir, ingestSvc)
		scanWorker = jobs.NewWorker(scanner, cfg.ScanInterval)
		go scanWorker.Start(ctx)
		log.Printf("document scanner started (dir: %s, interval: %s)", cfg.DocsDir, cfg.ScanInterval)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if scanWorker != nil {
		scanWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
