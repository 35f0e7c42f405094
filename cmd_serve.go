package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kendall-kelly/chillas-api/config"
	"github.com/kendall-kelly/chillas-api/middleware"
	"github.com/kendall-kelly/chillas-api/routes"
	"github.com/kendall-kelly/chillas-api/services"
	"github.com/kendall-kelly/chillas-api/utils"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// chillas-api serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Println("Starting Chillas API server...")

		cfg, err := bootDB()
		if err != nil {
			return err
		}
		if err := config.Migrate(config.GetDB()); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Println("Database migration completed successfully")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := initImageStorage(ctx, cfg); err != nil {
			return err
		}
		initMenuCache(ctx, cfg)

		router := routes.NewRouter(cfg, middleware.EnsureValidToken(cfg))
		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("Server is running on http://localhost:%s", cfg.Port)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// initImageStorage selects S3 when a bucket is configured and the local
// upload directory otherwise
func initImageStorage(ctx context.Context, cfg *config.Config) error {
	if !cfg.ImageStorageEnabled() {
		services.InitLocalImageService(utils.UploadDir)
		log.Printf("Storing uploaded images in %s", utils.UploadDir)
		return nil
	}

	s3Service, err := services.InitS3Service(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize S3: %w", err)
	}
	services.InitImageService(s3Service)
	log.Printf("Storing uploaded images in S3 bucket %s", cfg.AWSS3Bucket)
	return nil
}

// initMenuCache connects the Redis menu cache. The server keeps running
// uncached when Redis is unreachable.
func initMenuCache(ctx context.Context, cfg *config.Config) {
	if cfg.RedisAddr == "" {
		return
	}
	if _, err := services.InitRedisMenuCache(ctx, cfg.RedisAddr, cfg.RedisPassword); err != nil {
		log.Printf("warning: menu cache disabled: %v", err)
		return
	}
	log.Printf("Menu cache connected to redis at %s", cfg.RedisAddr)
}
