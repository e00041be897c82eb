package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"podrecon/internal/config"
	"podrecon/internal/handler"
	"podrecon/internal/logger"
	"podrecon/internal/matcher"
	"podrecon/internal/parser"
	_ "podrecon/internal/parser/claude"
	_ "podrecon/internal/parser/gemini"
	_ "podrecon/internal/parser/openai"
	"podrecon/internal/pdftext"
	"podrecon/internal/pipeline"
	"podrecon/internal/repository/postgres"
	"podrecon/internal/router"
	"podrecon/internal/service"
	s3storage "podrecon/internal/storage/s3"
	"podrecon/internal/textparse"
)

// @title podrecon API
// @version 1.0
// @description Proof-of-delivery extraction and parcel reconciliation.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl, err := logger.Init(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	parcelRepo := postgres.NewParcelRepo(db)
	resultRepo := postgres.NewPODResultRepo(db)

	// Initialize storage
	archive, err := s3storage.NewPODArchive(ctx, &cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize extraction
	extractor, err := parser.NewExtractorFromConfig(&cfg.Extraction)
	if err != nil {
		return fmt.Errorf("failed to initialize extraction: %w", err)
	}
	pipe := pipeline.New(pdftext.NewExtractor(), extractor, textparse.NewParser(),
		pipeline.WithWorkers(cfg.Extraction.Workers),
		pipeline.WithPreflight(cfg.Extraction.Preflight),
		pipeline.WithMatcher(matcher.New(matcher.WithMinCandidateLength(cfg.Matcher.MinCandidateLength))),
	)

	// Initialize services
	podSvc := service.NewPODService(parcelRepo, resultRepo, postgres.NewTransactor(db), archive, pipe, &cfg.S3, &cfg.Upload, &cfg.Matcher)
	parcelSvc := service.NewParcelService(parcelRepo, archive, &cfg.S3)
	probeSvc := service.NewProbeService(extractor)

	// Setup router
	r := router.Setup(cfg, router.Handlers{
		POD:    handler.NewPODHandler(podSvc, &cfg.Upload),
		Parcel: handler.NewParcelHandler(parcelSvc),
		Probe:  handler.NewProbeHandler(probeSvc),
		Health: handler.NewHealthHandler(db),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
			zap.Int("text_variants", len(cfg.Extraction.TextVariants)),
			zap.Int("vision_variants", len(cfg.Extraction.VisionVariants)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
