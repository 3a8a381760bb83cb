package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/framecut/framecut-engine/internal/api"
	"github.com/framecut/framecut-engine/internal/config"
	"github.com/framecut/framecut-engine/internal/db"
	"github.com/framecut/framecut-engine/internal/logging"
	"github.com/framecut/framecut-engine/internal/media"
	"github.com/framecut/framecut-engine/internal/metrics"
	"github.com/framecut/framecut-engine/internal/project"
	"github.com/framecut/framecut-engine/internal/render"
	"github.com/framecut/framecut-engine/internal/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ArtifactsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create artifacts dir: %w", err)
	}
	if err := os.MkdirAll(cfg.MediaDir(), 0755); err != nil {
		return fmt.Errorf("failed to create media dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting framecut engine", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	authToken, err := ensureAuthToken(database)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                   FRAMECUT ENGINE v0.1.0                  ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	catalogSvc := media.NewService(media.NewRepository(database.Conn()), logger)
	projectStore := project.NewStore(database.Conn(), logger)
	streamer := media.NewStreamer(logger)
	collector := metrics.NewCollector()
	hub := api.NewHub(logger)

	var renderClient render.Client
	if cfg.RenderURL() != "" && cfg.RenderToken() != "" {
		renderClient = render.NewHTTPClient(cfg.RenderURL(), cfg.RenderToken(), logger)
		logger.Info("render service configured",
			"base_url", cfg.RenderURL(),
			"token", logging.SanitizeToken(cfg.RenderToken()),
		)
	} else {
		renderClient = render.NewStubClient(logger)
		logger.Warn("render service not configured, exports disabled")
	}

	sessions := session.NewManager(
		renderClient,
		catalogSvc.DurationResolver(),
		cfg.ArtifactsDir(),
		cfg.PollInterval(),
		cfg.HistoryDepth(),
		logger,
	)
	defer sessions.CloseAll()

	apiServer := api.NewServer(api.ServerConfig{
		Port:     cfg.Port(),
		Sessions: sessions,
		Catalog:  catalogSvc,
		Streamer: streamer,
		Projects: projectStore,
		Tokens: func(ctx context.Context) (string, error) {
			return database.GetConfig("auth_token")
		},
		Metrics:   collector,
		Hub:       hub,
		Logger:    logger,
		StartTime: startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	hub.Close()

	logger.Info("shutdown complete")
	return nil
}

func ensureAuthToken(database *db.DB) (string, error) {
	existing, err := database.GetConfig("auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := database.SetConfig("auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
