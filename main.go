package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/auth"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/catalog"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/enrichment"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/interactions"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/location"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-tunisia-guide/internal/pkg/config"
	"github.com/FACorreiaa/go-tunisia-guide/internal/pkg/logger"
	"github.com/FACorreiaa/go-tunisia-guide/internal/routes"
	"github.com/FACorreiaa/go-tunisia-guide/internal/server"
)

const kafkaFlushTimeoutMs = 5000

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	level, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = zapcore.InfoLevel
	}
	opts := logger.Options{Level: level, Format: os.Getenv("LOG_FORMAT")}
	if err := logger.Init(opts, zap.String("service", "tunisia-guide")); err != nil {
		return err
	}
	lg := logger.L()
	defer lg.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	otelShutdown, err := server.InitObservability(cfg.Observability, lg)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			lg.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	ctx := context.Background()
	srv, err := server.New(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer srv.Close()

	// Interaction events always feed the metrics; Kafka is optional.
	bus := interactions.NewBus()
	bus.Subscribe(interactions.NewMetricsPublisher(metrics.Get()))
	if cfg.Kafka.Brokers != "" {
		producer, err := interactions.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, lg)
		if err != nil {
			lg.Warn("Kafka unavailable, interaction events stay local", zap.Error(err))
		} else {
			bus.Subscribe(producer)
			defer producer.Close(kafkaFlushTimeoutMs)
		}
	}

	registry := interactions.NewRegistry(cfg.Session.TTL, bus, lg)
	defer registry.Close()

	catalogService, err := newCatalog(ctx, cfg.Elastic, lg)
	if err != nil {
		return err
	}
	defer catalogService.Close()

	authRepo := auth.NewPostgresAuthRepo(srv.DBPool(), lg)
	authService := auth.NewAuthService(authRepo, auth.NewLogMailer(lg), cfg.JWT, lg)

	router := server.SetupRouter(cfg, &routes.Dependencies{
		DB:       srv.DBPool(),
		Auth:     authService,
		Registry: registry,
		Catalog:  catalogService,
		Looker:   enrichment.NewClient(cfg.External, lg),
		Location: location.NewService(cfg.External, lg),
	}, lg)
	srv.SetRouter(router)

	pprofServer := server.StartPprofServer(cfg.Observability.PprofAddr, lg)

	httpServer := srv.HTTPServer()
	done := make(chan struct{})
	go server.GracefulShutdown(httpServer, lg, done, pprofServer)

	lg.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Error("Server error", zap.Error(err))
		return err
	}

	<-done
	lg.Info("Graceful shutdown complete")
	return nil
}

// newCatalog loads the seed listings and, when an Elasticsearch URL is configured,
// indexes them there. Index failures leave search on the in-memory matcher.
func newCatalog(ctx context.Context, cfg config.ElasticConfig, lg *zap.Logger) (*catalog.Service, error) {
	if cfg.URL == "" {
		return catalog.NewService(lg)
	}

	listings, err := catalog.LoadSeed()
	if err != nil {
		return nil, err
	}

	idx, err := catalog.NewElasticIndex(cfg.URL, cfg.Index, lg)
	if err == nil {
		err = idx.EnsureIndex(ctx)
	}
	if err == nil {
		err = idx.IndexListings(ctx, listings)
	}
	if err != nil {
		lg.Warn("Search index disabled", zap.String("url", cfg.URL), zap.Error(err))
		return catalog.NewServiceFromListings(listings, lg)
	}
	return catalog.NewServiceFromListings(listings, lg, catalog.WithSearchIndex(idx))
}
