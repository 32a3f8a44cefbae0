package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-relay/auth"
	"chat-relay/infrastructure/rest"
	"chat-relay/infrastructure/storage"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so that deferred cleanups always execute
// before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB) & Search (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := storage.NewMessageIndex(bluge.DefaultConfig(config.BlugeFilepath), log)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	// 3. Moderation
	censored, err := moderation.LoadEmbedded()
	if err != nil {
		return fmt.Errorf("censored words loading failed: %w", err)
	}
	replacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(censored.Words, replacement, log)
	if err != nil {
		return fmt.Errorf("moderator build failed: %w", err)
	}
	log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(censored.Languages), strings.Join(censored.Languages, ", ")))
	log.Info(fmt.Sprintf("%d unique censored words loaded", len(censored.Words)))

	// 4. Relay core
	registry := runtime.NewRegistry()
	messageRepository := storage.NewMessageRepository(db, log, config.LimitMessages)
	broadcaster := runtime.NewBroadcaster(log, registry, messageRepository,
		moderator, index, config.SinkTimeout)

	tokens := auth.NewTokenService([]byte(config.JWTSecret), config.TokenIssuer,
		config.AuthTokenDuration)
	authService := services.NewAuthService(storage.NewUserRepository(db), tokens)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Background workers
	sup := workers.NewSupervisor(log)
	sup.Add(workers.NewTelemetryWorker(log, registry, config.MetricInterval))
	go sup.Run(ctx)

	// 7. HTTP surface: REST routes plus the WebSocket endpoint
	wsServer := ws.NewServer(log, registry, broadcaster, tokens,
		config.ConnectionBufferSize, config.MaxContentLength, config.Origins())
	restHandler := rest.NewHandler(log, authService, tokens, broadcaster,
		messageRepository, index, config.SearchLimit)

	mux := http.NewServeMux()
	restHandler.Register(mux)
	mux.HandleFunc("GET /ws", wsServer.Handle)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: rest.CORS(config.Origins())(mux),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", server.Addr, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
