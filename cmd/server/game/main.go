package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cbodonnell/panchali/pkg/api"
	"github.com/cbodonnell/panchali/pkg/config"
	"github.com/cbodonnell/panchali/pkg/game"
	"github.com/cbodonnell/panchali/pkg/handlers"
	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/network"
	"github.com/cbodonnell/panchali/pkg/queue"
	"github.com/cbodonnell/panchali/pkg/repositories"
	"github.com/cbodonnell/panchali/pkg/state"
	"github.com/cbodonnell/panchali/pkg/telemetry"
	"github.com/cbodonnell/panchali/pkg/version"
	"github.com/cbodonnell/panchali/pkg/workers"
)

func main() {
	logLevel := flag.String("log-level", "", "Log level (overrides PANCHALI_LOG_LEVEL)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Failed to load config: %v", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	parsedLogLevel, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		config.Exitf("Failed to parse log level: %v", err)
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting game server version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "panchali-game", version.Get(), cfg.OTelEndpoint)
	if err != nil {
		config.Exitf("Failed to set up tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error("Failed to shut down tracing: %v", err)
		}
	}()

	repository, err := repositories.NewRepositoryFromURL(ctx, cfg.DatabaseURL)
	if err != nil {
		config.Exitf("Failed to create repository: %v", err)
	}
	defer repository.Close(context.Background())

	// nobody is connected to a freshly started process
	if err := repository.ClearAllConnections(ctx); err != nil {
		config.Exitf("Failed to clear stale connections: %v", err)
	}

	stateManager := state.NewInMemoryStateManager()
	reconciler := state.NewReconciler(state.NewReconcilerOptions{
		Repository:   repository,
		StateManager: stateManager,
	})
	checkpointQueue := queue.NewInMemoryQueue(0)

	clientManager := network.NewClientManager()
	h := handlers.NewHandlers(handlers.NewHandlersOptions{
		Repository:      repository,
		StateManager:    stateManager,
		Reconciler:      reconciler,
		Engine:          game.NewEngine(game.NewRandomDiceRoller()),
		Transport:       clientManager,
		CheckpointQueue: checkpointQueue,
		MinPlayers:      cfg.MinPlayers,
		MaxPlayers:      cfg.MaxPlayers,
	})

	var wg sync.WaitGroup
	run := func(f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}

	connectionEventWorker := workers.NewConnectionEventWorker(workers.NewConnectionEventWorkerOptions{
		ConnectionEventChan: clientManager.GetConnectionEventChan(),
		DisconnectHandler:   h,
	})
	run(func() { connectionEventWorker.Start(ctx) })

	checkpointWorker := workers.NewCheckpointWorker(workers.NewCheckpointWorkerOptions{
		Repository:      repository,
		StateManager:    stateManager,
		CheckpointQueue: checkpointQueue,
		Interval:        cfg.CheckpointInterval,
	})
	run(func() { checkpointWorker.Start(ctx) })

	apiServerOpts := api.NewAPIServerOptions{
		Port:           cfg.APIPort,
		AllowedOrigins: cfg.AllowedOrigins,
		Repository:     repository,
		StateManager:   stateManager,
	}
	wsServerOpts := network.NewWSServerOptions{
		Port:           cfg.WSPort,
		AllowedOrigins: cfg.AllowedOrigins,
		WriteTimeout:   cfg.WriteTimeout,
		ClientManager:  clientManager,
	}
	if cfg.TLSEnabled() {
		apiServerOpts.TLS = &api.TLSConfig{CertFile: cfg.TLSCertFile, KeyFile: cfg.TLSKeyFile}
		wsServerOpts.TLS = &network.TLSConfig{CertFile: cfg.TLSCertFile, KeyFile: cfg.TLSKeyFile}
	}

	apiServer := api.NewAPIServer(apiServerOpts)
	run(apiServer.Start)
	run(func() {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Stop(stopCtx); err != nil {
			log.Error("Failed to stop API server: %v", err)
		}
	})

	wsServer := network.NewWSServer(wsServerOpts)
	wsServer.Start(ctx, h.Dispatch)

	log.Info("Shutting down")
	stop()
	wg.Wait()
	log.Info("Game server stopped")
}
