package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/sha256-digest/internal/api"
	"github.com/JakeFAU/sha256-digest/internal/clock/system"
	"github.com/JakeFAU/sha256-digest/internal/config"
	"github.com/JakeFAU/sha256-digest/internal/digest"
	"github.com/JakeFAU/sha256-digest/internal/hash/sha256"
	"github.com/JakeFAU/sha256-digest/internal/id/uuid"
	"github.com/JakeFAU/sha256-digest/internal/metrics"
	memorypublisher "github.com/JakeFAU/sha256-digest/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/sha256-digest/internal/publisher/pubsub"
	gcsstorage "github.com/JakeFAU/sha256-digest/internal/storage/gcs"
	localstorage "github.com/JakeFAU/sha256-digest/internal/storage/local"
	memorystorage "github.com/JakeFAU/sha256-digest/internal/storage/memory"
	"github.com/JakeFAU/sha256-digest/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the digest HTTP service",
		Long: `Starts the HTTP API. Digest records are kept in memory or Postgres, payloads
are optionally archived to the local filesystem or GCS, and a digest.computed
event is published to Pub/Sub when a topic is configured.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.Config()
	logger := appInstance.Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	svc := digest.NewService(
		deps.records,
		deps.blobs,
		deps.publisher,
		sha256.New(),
		system.New(),
		uuid.New(),
		digest.Config{
			MaxPayloadBytes: cfg.Server.MaxBodyBytes,
			BlobPrefix:      cfg.Storage.Prefix,
			ContentType:     cfg.Storage.ContentType,
			Topic:           cfg.PubSub.TopicName,
		},
		logger.Named("digest"),
	)
	apiServer := api.NewServer(svc, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

type dependencies struct {
	records   digest.RecordStore
	blobs     digest.BlobStore
	publisher digest.Publisher
	// closers run in reverse order of registration.
	closers []func() error
}

func (d *dependencies) onClose(fn func() error) {
	d.closers = append(d.closers, fn)
}

func (d *dependencies) close(logger *zap.Logger) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logger.Warn("close dependency failed", zap.Error(err))
		}
	}
	d.closers = nil
}

func buildDependencies(ctx context.Context, cfg config.Config, logger *zap.Logger) (*dependencies, error) {
	deps := &dependencies{}

	records, err := buildRecordStore(ctx, cfg.DB, logger)
	if err != nil {
		return nil, err
	}
	deps.records = records
	deps.onClose(func() error {
		records.Close()
		return nil
	})

	if err := buildBlobStore(ctx, cfg.Storage, deps); err != nil {
		deps.close(logger)
		return nil, err
	}
	if err := buildPublisher(ctx, cfg.PubSub, deps, logger); err != nil {
		deps.close(logger)
		return nil, err
	}
	logger.Info("dependencies ready",
		zap.String("db", cfg.DB.Provider),
		zap.String("storage", cfg.Storage.Provider),
		zap.String("pubsub", cfg.PubSub.Provider),
		zap.String("topic", cfg.PubSub.TopicName),
	)
	return deps, nil
}

func buildRecordStore(ctx context.Context, cfg config.DBConfig, logger *zap.Logger) (digest.RecordStore, error) {
	if cfg.Provider != config.DBPostgres {
		return memorystorage.NewRecordStore(), nil
	}
	store, err := postgres.NewRecordStore(ctx, postgres.RecordStoreConfig{
		DSN:             cfg.DSN,
		Table:           cfg.Table,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("init postgres record store: %w", err)
	}
	if cfg.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate record table: %w", err)
		}
		logger.Info("record table ready", zap.String("table", cfg.Table))
	}
	return store, nil
}

func buildBlobStore(ctx context.Context, cfg config.StorageConfig, deps *dependencies) error {
	switch cfg.Provider {
	case config.StorageMemory:
		deps.blobs = memorystorage.NewBlobStore()
	case config.StorageLocal:
		blobs, err := localstorage.New(localstorage.Config{BaseDir: cfg.BaseDir})
		if err != nil {
			return fmt.Errorf("init local blob store: %w", err)
		}
		deps.blobs = blobs
	case config.StorageGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("init gcs client: %w", err)
		}
		blobs, err := gcsstorage.New(client, gcsstorage.Config{Bucket: cfg.GCSBucket})
		if err != nil {
			_ = client.Close()
			return fmt.Errorf("init gcs blob store: %w", err)
		}
		deps.blobs = blobs
		deps.onClose(client.Close)
	}
	return nil
}

func buildPublisher(ctx context.Context, cfg config.PubSubConfig, deps *dependencies, logger *zap.Logger) error {
	if cfg.TopicName == "" {
		return nil
	}
	switch cfg.Provider {
	case config.PubSubMemory:
		pub := memorypublisher.New(cfg.Retention, logger.Named("events"))
		deps.publisher = pub
		deps.onClose(pub.Close)
	default:
		pub, err := pubsubpublisher.NewFromProject(ctx, cfg.ProjectID)
		if err != nil {
			return fmt.Errorf("init pubsub publisher: %w", err)
		}
		deps.publisher = pub
		deps.onClose(pub.Close)
	}
	return nil
}
