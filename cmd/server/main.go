// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"serial-terminal/internal/config"
	"serial-terminal/internal/routes"
	"serial-terminal/internal/service"
	"serial-terminal/internal/session"
	"serial-terminal/internal/utils"
)

const preferencesPath = "./data/preferences.yaml"

// Application represents the main application
type Application struct {
	config *config.Config
	prefs  *config.Preferences
	logger *zap.Logger
	server *http.Server

	manager  *session.Manager
	bus      *service.EventBus
	terminal *service.TerminalService
}

func main() {
	// Initialize application
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Start the application
	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Create service logger
	serviceLogger := utils.NewServiceLogger(logger, "serial-terminal")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	// Load last-used settings
	prefs, err := config.LoadPreferences(preferencesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	app := &Application{
		config: cfg,
		prefs:  prefs,
		logger: logger,
	}

	app.initializeTerminal()

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeTerminal wires the session manager, the event bus and the
// terminal service together and restores the remembered display setup.
func (app *Application) initializeTerminal() {
	app.manager = session.NewManager(app.logger)
	app.bus = service.NewEventBus(app.logger)
	app.terminal = service.NewTerminalService(app.manager, app.bus, app.logger)

	viewMode, timestamps := app.prefs.LastDisplay()
	if err := app.terminal.SetViewMode(viewMode); err != nil {
		app.logger.Warn("Ignoring remembered view mode", zap.String("mode", viewMode), zap.Error(err))
	}
	app.terminal.SetTimestamps(timestamps)

	app.logger.Info("Terminal initialized",
		zap.String("view_mode", viewMode),
		zap.Bool("timestamps", timestamps),
	)
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	// Create router
	routerManager := routes.NewRouter(
		app.config,
		app.prefs,
		app.logger,
		app.terminal,
		app.bus,
	)

	// Setup router with all routes
	router := routerManager.SetupRouter()

	// Create HTTP server
	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)

	return nil
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	// Create channel to receive OS signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for signal
	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Perform graceful shutdown
	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "serial-terminal")
	serviceLogger.LogServiceStop("shutdown signal received")

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	// Stop the terminal; this closes the port and drains the event pump
	app.terminal.Stop()
	app.bus.Close()
	app.logger.Info("Terminal stopped")

	// Persist last-used settings
	snapshot := app.terminal.Status()
	app.prefs.RememberDisplay(snapshot.ViewMode, snapshot.Timestamps)
	if err := app.prefs.Save(); err != nil {
		app.logger.Error("Failed to save preferences", zap.Error(err))
	}

	// Flush logger
	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

func (app *Application) Start() error {
	// Start the terminal background loops
	go app.bus.Start()
	app.terminal.Start()

	// Start server in goroutine
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()

	return nil
}
