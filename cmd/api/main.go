package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danteocualesjr/ai-chatbot/internal/config"
	"github.com/danteocualesjr/ai-chatbot/internal/handler"
	"github.com/danteocualesjr/ai-chatbot/internal/service/ai"
	"github.com/danteocualesjr/ai-chatbot/internal/service/session"
	"github.com/danteocualesjr/ai-chatbot/internal/storage"
	"github.com/danteocualesjr/ai-chatbot/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file, continuing with system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	kv, err := openStorage(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close storage")
		}
	}()

	conversations := store.New(kv, cfg.Storage.MaxConversations)
	sessions := session.New(conversations, cfg.Session.SaveDebounce)
	defer func() {
		sessions.Flush()
		sessions.Close()
	}()

	aiSvc := ai.NewService(cfg.AI)
	if aiSvc.Enabled() {
		log.Info().Msg("completion endpoint configured")
	} else {
		log.Warn().Msg("OPENAI_API_KEY missing or placeholder, sends will be answered locally")
	}

	router := handler.NewRouter(sessions, aiSvc, conversations)

	startServer(ctx, cfg.Server, router)
}

// openStorage picks the durable medium configured for conversations.
func openStorage(cfg config.StorageConfig) (storage.KV, error) {
	switch cfg.Backend {
	case "file":
		return storage.NewFileKV(cfg.Path, cfg.QuotaBytes)
	case "sqlite":
		return storage.NewSQLiteKV(filepath.Join(cfg.Path, "conversations.db"), cfg.QuotaBytes)
	case "memory":
		return storage.NewMemoryKV(cfg.QuotaBytes), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", serverCfg.Addr).Msg("ai-chatbot backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
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
