package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/najdeno/internal/api"
	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/blob"
	"github.com/erazemk/najdeno/internal/chat"
	"github.com/erazemk/najdeno/internal/config"
	"github.com/erazemk/najdeno/internal/resolve"
	"github.com/erazemk/najdeno/internal/store"
)

func (c *cli) serveCmd() *cobra.Command {
	var (
		addr      string
		exclusive bool
		mediaDir  string
		s3Bucket  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("addr") {
				c.cfg.Addr = addr
			}
			if flags.Changed("exclusive-claims") {
				c.cfg.ExclusiveClaims = exclusive
			}
			if flags.Changed("media-dir") {
				c.cfg.MediaDir = mediaDir
			}
			if flags.Changed("s3-bucket") {
				c.cfg.S3Bucket = s3Bucket
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&addr, "addr", "a", "", "listen address (default :8080)")
	f.BoolVar(&exclusive, "exclusive-claims", false, "only accept claims on items without a pending claim")
	f.StringVar(&mediaDir, "media-dir", "", "directory for uploaded photos (default media)")
	f.StringVar(&s3Bucket, "s3-bucket", "", "store photos in this S3 bucket instead of the media directory")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	cfg := c.cfg

	database, err := c.openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()
	slog.Info("database ready", "path", cfg.DBPath)

	secret := cfg.JWTSecret
	if secret == "" {
		if secret, err = auth.LoadSecret(ctx, database); err != nil {
			return err
		}
	}

	engine := resolve.New(database)
	engine.ExclusiveClaims = cfg.ExclusiveClaims

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", api.NewRouter(api.Deps{
		DB:        database,
		Engine:    engine,
		Chat:      chat.New(database),
		Blobs:     blobs,
		JWTSecret: secret,
		TokenTTL:  cfg.TokenTTL,
	}))
	if !cfg.UseS3() {
		prefix := "/" + strings.Trim(cfg.MediaURL, "/")
		mux.Handle(prefix+"/", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.MediaDir))))
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if n, err := engine.ReconcileAll(ctx); err != nil {
		slog.Error("startup reconciliation failed", "error", err)
	} else if n > 0 {
		slog.Warn("startup reconciliation repaired items", "count", n)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server started", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
		return nil
	})

	if cfg.ReconcileInterval > 0 {
		g.Go(func() error {
			maintain(gctx, engine, database, cfg.ReconcileInterval)
			return nil
		})
	}

	err = g.Wait()
	slog.Info("server stopped, closing database")
	return err
}

// maintain periodically repairs item status drift and drops expired token
// revocations until ctx is done.
func maintain(ctx context.Context, engine *resolve.Engine, database *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if n, err := engine.ReconcileAll(ctx); err != nil {
			if ctx.Err() == nil {
				slog.Error("reconciliation failed", "error", err)
			}
		} else if n > 0 {
			slog.Warn("reconciliation repaired items", "count", n)
		}

		if n, err := store.PurgeExpiredTokens(ctx, database, time.Now()); err != nil {
			if ctx.Err() == nil {
				slog.Error("purging revoked tokens failed", "error", err)
			}
		} else if n > 0 {
			slog.Info("purged expired token revocations", "count", n)
		}
	}
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.UseS3() {
		s, err := blob.NewS3(ctx, cfg.S3())
		if err != nil {
			return nil, err
		}
		slog.Info("storing photos in s3", "bucket", cfg.S3Bucket)
		return s, nil
	}

	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		return nil, err
	}
	slog.Info("storing photos on disk", "dir", cfg.MediaDir)
	return &blob.Dir{Root: cfg.MediaDir, BaseURL: cfg.MediaURL}, nil
}
