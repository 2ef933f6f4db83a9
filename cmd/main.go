package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moamarket/chat-service/config"
	"github.com/moamarket/chat-service/internal/memstore"
	"github.com/moamarket/chat-service/internal/postgres"
	"github.com/moamarket/chat-service/internal/security"
	"github.com/moamarket/chat-service/internal/service"
	"github.com/moamarket/chat-service/internal/store"
	httpx "github.com/moamarket/chat-service/internal/transport/http"
	"github.com/moamarket/chat-service/internal/transport/ws"
	"github.com/moamarket/chat-service/internal/viewdedup"
	"github.com/moamarket/chat-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "store", cfg.Store.Backend)

	// --- store & collaborators ---
	ctx := context.Background()

	var (
		st       store.Store
		listings store.ListingDirectory
		users    store.UserDirectory
	)
	switch cfg.Store.Backend {
	case "memory":
		mem := memstore.New()
		// dev-профиль: пара пользователей и объявление, чтобы сервис был живым
		mem.AddUser(1, "alice")
		mem.AddUser(2, "bob")
		mem.AddListing(100, 1)
		st, listings, users = mem, mem, mem
	default:
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:             cfg.Store.DSN,
			ApplicationName: cfg.Logging.Service,
		})
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		st = postgres.NewStore(pool)
		listings = postgres.NewListingDir(pool)
		users = postgres.NewUserDir(pool)
	}
	defer st.Close()

	// --- services ---
	roomSvc := service.NewRoomService(st, listings)
	chatSvc := service.NewChatService(st, listings, cfg.Chat.MaxMessageLen)
	unreadSvc := service.NewUnreadService(st)
	viewSvc := service.NewViewService(st, viewdedup.New(), cfg.DedupWindow())

	tokens := security.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.TokenTTL())

	// --- WS Hub & Server ---
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, roomSvc, chatSvc, users, tokens)

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc, chatSvc, unreadSvc, viewSvc, wsServer)
	router := httpx.NewRouter(handler, tokens, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
