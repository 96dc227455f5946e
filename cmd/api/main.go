package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/manuelcastro95/chime-backend/internal/config"
	"github.com/manuelcastro95/chime-backend/internal/gateway/chime"
	"github.com/manuelcastro95/chime-backend/internal/handler"
	"github.com/manuelcastro95/chime-backend/internal/service/events"
	meetingservice "github.com/manuelcastro95/chime-backend/internal/service/meeting"
	transcriptionservice "github.com/manuelcastro95/chime-backend/internal/service/transcription"
	"github.com/manuelcastro95/chime-backend/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLog, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Log.Environment,
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	gw, err := chime.New(ctx, cfg.AWS.Region, appLog)
	if err != nil {
		log.Fatalf("failed to initialize chime gateway: %v", err)
	}

	broker := events.NewBroker()
	registry := meetingservice.NewRegistry(gw, broker, appLog, cfg.AWS.MediaRegion)
	coordinator := transcriptionservice.NewCoordinator(registry, gw, broker, appLog, cfg.AWS.TranscribeRegion)

	reaper := meetingservice.NewReaper(registry, cfg.Sessions.ReapInterval, cfg.Sessions.TTL, appLog)
	go reaper.Run(ctx)

	router := handler.NewRouter(registry, coordinator, broker, appLog)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("chime backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
