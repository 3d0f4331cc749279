package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"annotastore/config"
	"annotastore/config/database"
	"annotastore/internal/attachment"
	"annotastore/internal/comment"
	"annotastore/internal/reaction"
	"annotastore/internal/token"
	"annotastore/internal/user"
	"annotastore/pkg/logger"
	"annotastore/router"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Init("info")
		logger.Sugar.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Sugar.Fatalf("Could not connect to %s: %v", cfg.Database.Type, err)
	}

	var blobs attachment.BlobStore
	if cfg.Storage.Minio.Enabled() {
		if blobs, err = attachment.NewMinioStore(cfg.Storage.Minio); err != nil {
			logger.Sugar.Fatalf("Could not connect to object storage: %v", err)
		}
		logger.Sugar.Infof("Attachment payloads are stored in bucket %s", cfg.Storage.Minio.Bucket)
	}

	attachments, err := attachment.NewService(
		database.NewCollection[attachment.Attachment](backend, cfg.Collections.Attachments),
		attachment.Options{
			Blobs:   blobs,
			MaxSize: cfg.Attachments.MaxSize,
			URLPath: cfg.Attachments.URLPath,
			APIKey:  cfg.APIKey,
		},
	)
	if err != nil {
		logger.Sugar.Fatalf("Failed to set up attachments: %v", err)
	}

	tokens := token.NewService(cfg.Token.SigningKey, cfg.Token.TTL)
	services := router.Services{
		Comments:    comment.NewService(database.NewCollection[comment.Record](backend, cfg.Collections.Comments), cfg.APIKey),
		Reactions:   reaction.NewService(database.NewCollection[reaction.Record](backend, cfg.Collections.Reactions), cfg.APIKey),
		Attachments: attachments,
		Users:       user.NewService(database.NewCollection[user.User](backend, cfg.Collections.Users)),
		Tokens:      tokens,
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: router.Setup(services, router.Options{
			APIKey:        cfg.APIKey,
			CORSOrigin:    cfg.Server.CORSOrigin,
			AttachmentMax: cfg.Attachments.MaxSize,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Sugar.Infof("annotastore listening on %s (%s backend)", srv.Addr, backend.Type)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar.Errorf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Sugar.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Server shutdown: %v", err)
	}
	if err := backend.Close(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Closing database: %v", err)
	}
}
