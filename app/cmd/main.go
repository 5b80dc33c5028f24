package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"schemagen/app/config"
	"schemagen/app/usecase"
	"schemagen/internal/domain/repository"
	"schemagen/internal/infrastructure/generator"
	"schemagen/internal/infrastructure/metrics"
	"schemagen/internal/infrastructure/store/filesystem"
	"schemagen/internal/infrastructure/store/memory"
	mongorepo "schemagen/internal/infrastructure/store/mongodb"
	"schemagen/internal/infrastructure/transport"
	"schemagen/internal/infrastructure/validator"
)

func main() {
	configPath := flag.String("config", os.Getenv("SCHEMAGEN_CONFIG"), "path to an HCL config file")
	flag.Parse()

	// load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// History: MongoDB when configured, memory otherwise
	var history repository.GenerationRepository = memory.NewGenerationRepo()
	var mongoClient *mongo.Client
	if cfg.Mongo.URI != "" {
		mongoCtx, mongoCancel := context.WithTimeout(ctx, 10*time.Second)
		mongoClient, err = mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			mongoCancel()
			logger.Error("mongo connect failed", "err", err)
			os.Exit(1)
		}
		if err := mongoClient.Ping(mongoCtx, nil); err != nil {
			mongoCancel()
			logger.Error("mongo ping failed", "err", err)
			os.Exit(1)
		}
		mongoCancel()
		logger.Info("connected to mongo", "database", cfg.Mongo.Database)
		history = mongorepo.NewMongoGenerationRepo(mongoClient.Database(cfg.Mongo.Database))
	}

	// Artifact archive (optional)
	var archive repository.ArtifactArchive
	if cfg.Archive.Dir != "" {
		repo, err := filesystem.NewArchiveRepository(cfg.Archive.Dir)
		if err != nil {
			logger.Error("init archive failed", "dir", cfg.Archive.Dir, "err", err)
			os.Exit(1)
		}
		archive = repo
		logger.Info("archiving artifacts", "dir", cfg.Archive.Dir)
	}

	gen := generator.NewCannedGenerator(cfg.Generation.Delay, logger)
	svc := usecase.NewGenerationService(gen, validator.NewOutputAnalyzer(), history, archive, logger)

	// Transport (HTTP handlers)
	handler := transport.NewGenerationHandler(svc, logger, nil)

	// Router and server
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(r)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      corsHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	servers := []*http.Server{srv}
	if cfg.Metrics.Addr != "" {
		servers = append(servers, metrics.NewServer(cfg.Metrics.Addr))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range servers {
		s := s
		g.Go(func() error {
			logger.Info("starting HTTP server", "addr", s.Addr)
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	// Shutdown sequence
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "addr", s.Addr, "err", err)
			}
		}
		if mongoClient != nil {
			logger.Info("disconnecting mongo")
			if err := mongoClient.Disconnect(shutdownCtx); err != nil {
				logger.Error("mongo disconnect error", "err", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server failed", "err", err)
		os.Exit(1)
	}
	logger.Info("service stopped")
}
