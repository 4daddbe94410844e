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

	"github.com/kisansahay/kisan-sahay/backend/internal/config"
	"github.com/kisansahay/kisan-sahay/backend/internal/handler"
	"github.com/kisansahay/kisan-sahay/backend/internal/handler/ws"
	"github.com/kisansahay/kisan-sahay/backend/internal/model/chat"
	"github.com/kisansahay/kisan-sahay/backend/internal/service/ai"
	"github.com/kisansahay/kisan-sahay/backend/internal/service/conversation"
	"github.com/kisansahay/kisan-sahay/backend/internal/store"
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

	chatStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("failed to open chat store: %v", err)
	}
	defer chatStore.Close()

	// Advisory model. Missing credentials are not fatal: the first submit
	// fails conversationally instead, matching the rest of the error model.
	var advisor conversation.Advisor = ai.Unconfigured{}
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize advisory model: %v", err)
		} else {
			advisor = ai.NewService(chatModel)
			log.Println("advisory model initialized successfully")
		}
	} else {
		log.Println("model credentials not configured; advisory calls will fail until they are set")
	}

	convSvc := conversation.NewService(advisor)
	convSvc.Hydrate(chatStore.Load(ctx))

	// Reactions to conversation mutations: persist the snapshot and push it
	// to connected pages. Persistence failures are log-only by design.
	hub := ws.NewHub()
	convSvc.OnChange(hub.Broadcast)
	convSvc.OnChange(func(snap chat.Snapshot) {
		if err := chatStore.Save(context.Background(), snap.Messages); err != nil {
			log.Printf("[store] failed to persist conversation: %v", err)
		}
	})

	router := handler.NewRouter(convSvc, hub)

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

	log.Printf("Kisan Sahay backend listening on %s", addr)
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
