package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/veldt-labs/veldt/internal/choices"
	"github.com/veldt-labs/veldt/internal/config"
	"github.com/veldt-labs/veldt/internal/eventtype"
	"github.com/veldt-labs/veldt/internal/migrations"
	"github.com/veldt-labs/veldt/internal/rules"
	"github.com/veldt-labs/veldt/internal/schema"
	"github.com/veldt-labs/veldt/internal/schema/api"
	"github.com/veldt-labs/veldt/internal/server"
)

func main() {
	configPath := flag.String("config", "veldt.yaml", "Path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	// Choice backends: PostgreSQL when a DSN is configured, in-memory
	// otherwise. The in-memory mode serves token-free catalogs and local
	// development.
	var (
		backends schema.Backends
		details  eventtype.DetailsRepository
		db       *sql.DB
	)
	if cfg.Database.DSN != "" {
		pg, err := choices.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		db = pg.DB()

		if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}

		pgDetails, err := eventtype.NewPostgresDetails(db)
		if err != nil {
			slog.Error("Failed to prepare event details store", "error", err)
			os.Exit(1)
		}
		defer pgDetails.Close()

		backends = schema.Backends{Choices: pg, Dynamic: pg, Lookup: pg}
		details = pgDetails
	} else {
		slog.Info("No database configured, using in-memory choice backends")
		backends = schema.Backends{
			Choices: choices.NewMemoryRepository(),
			Dynamic: choices.NewMemoryDynamicRepository(),
			Lookup:  choices.NewMemoryLookupRepository(),
		}
		details = eventtype.NewMemoryDetailsRepository()
	}

	types, err := eventtype.NewFileSystemRepository(cfg.EventTypes.Path)
	if err != nil {
		slog.Error("Failed to load event type catalog", "path", cfg.EventTypes.Path, "error", err)
		os.Exit(1)
	}

	renderer := schema.NewRenderer(schema.NewChoiceProvider(backends))
	synthesizer := rules.NewSynthesizer(renderer, nil)

	handler := api.NewHandler(types, details, renderer, synthesizer)

	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), db, cfg.Server.Mode)
	handler.Register(srv.Engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
