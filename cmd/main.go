package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talkline/infrastructure/httpapi"
	"talkline/infrastructure/ws"
	"talkline/internal"
	"talkline/moderation"
	"talkline/observability"
	"talkline/repositories"
	"talkline/runtime"
	"talkline/runtime/workers"
	"talkline/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.GetLoggerFromString(config.LogLevel)

	censorRune, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & Runtime
	userRepository := repositories.NewUserRepository(db)
	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return fmt.Errorf("message repository init failed: %w", err)
	}
	defer func() {
		_ = messageRepository.Close()
	}()

	registry := runtime.NewRegistry()
	monitor := observability.NewMonitor(log)

	words, err := moderation.LoadWords()
	if err != nil {
		return fmt.Errorf("moderation wordlist failed: %w", err)
	}
	moderator, err := moderation.NewModerator(words, censorRune)
	if err != nil {
		return fmt.Errorf("moderator init failed: %w", err)
	}

	// 4. Services
	chatService := services.NewChatService(log, userRepository, messageRepository,
		registry, &moderator, monitor)
	authService := services.NewAuthService(userRepository, config.AuthTokenDuration)
	directoryService := services.NewDirectoryService(userRepository)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewBadgerGCWorker(db, log, config.GCInterval),
		workers.NewStatsWorker(log, monitor, registry, config.MetricInterval),
	)
	go sup.Run(ctx)

	// 7. HTTP Server Setup
	wsHandler := ws.NewHandler(log, chatService, config.ConnectionBufferSize)
	router := httpapi.NewRouter(log, authService, directoryService, wsHandler.Serve)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: router.Engine(),
	}

	if config.EnableDebugServer {
		internal.StartDebugServer(db, config.DebugPort, func() map[string]any {
			stats := monitor.GetLatest()
			return map[string]any{
				"OnlineUsers":     stats.OnlineUsers,
				"MessagesStored":  stats.MessagesStored,
				"PushesDelivered": stats.PushesDelivered,
				"HistoryServed":   stats.HistoryServed,
			}
		})
		log.Info("Debug server started", "port", config.DebugPort)
	}

	// Use an error channel to capture Serve() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
