package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"fotomu/config"
	"fotomu/db"
	"fotomu/gallery"
	"fotomu/logging"
	"fotomu/metadata"
	"fotomu/storage"
)

func main() {
	app := &cli.App{
		Name:   "fotomu",
		Usage:  "Photo and video gallery backed by S3-compatible storage",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server (default)",
				Action: serve,
			},
			{
				Name:   "reconcile",
				Usage:  "List remote storage once and rewrite local metadata to match",
				Action: reconcile,
			},
			{
				Name:   "sweep-orphans",
				Usage:  "Retry remote deletion of files removed from the gallery",
				Action: sweepOnce,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// services holds the components shared by every command.
type services struct {
	cfg     *config.Config
	logger  *slog.Logger
	gallery *gallery.Gallery
	closer  io.Closer
}

func (a *services) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func setup(ctx context.Context) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	remote, err := storage.NewMinio(storage.MinioConfig{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		UseSSL:    cfg.StorageUseSSL,
		PublicURL: cfg.StoragePublicURL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	if err := remote.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("preparing bucket: %w", err)
	}

	repo, closer, err := openRepository(cfg, logger)
	if err != nil {
		return nil, err
	}

	g := gallery.New(metadata.NewStore(repo), remote, gallery.Options{
		Root:                cfg.StorageRoot,
		ListLimit:           cfg.ListLimit,
		MaxFileSize:         cfg.UploadMaxFileSize,
		MaxFiles:            cfg.UploadMaxFiles,
		AllowedTypes:        cfg.AllowedTypes(),
		DeleteRetryDelay:    cfg.DeleteRetryDelay,
		ArchiveFetchTimeout: cfg.ArchiveFetchTimeout,
		ArchiveConcurrency:  cfg.ArchiveConcurrency,
	}, logger)

	return &services{cfg: cfg, logger: logger, gallery: g, closer: closer}, nil
}

func openRepository(cfg *config.Config, logger *slog.Logger) (metadata.Repository, io.Closer, error) {
	switch cfg.MetadataBackend {
	case "sqlite":
		conn, err := db.Open(cfg.SQLitePath, !cfg.IsProduction())
		if err != nil {
			return nil, nil, fmt.Errorf("opening metadata database: %w", err)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("opening metadata database: %w", err)
		}
		return metadata.NewSQLite(conn), sqlDB, nil
	case "bolt":
		b, err := metadata.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	default:
		return metadata.NewJSONFile(cfg.MetadataPath, logger), nil, nil
	}
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
}

func reconcile(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	files, err := a.gallery.List(ctx, gallery.ScopeAll)
	if err != nil {
		return err
	}
	fmt.Printf("reconciled %d files\n", len(files))
	return nil
}

func sweepOnce(c *cli.Context) error {
	ctx, stop := signalContext(c)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.gallery.SweepOrphans(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d orphaned objects\n", removed)
	return nil
}
