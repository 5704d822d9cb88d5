package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"veriguard/internal/analysis"
	"veriguard/internal/chat"
	"veriguard/internal/config"
	"veriguard/internal/export"
	"veriguard/internal/lifecycle"
	"veriguard/internal/logger"
	"veriguard/internal/router"
	"veriguard/internal/storage"
)

// app is the wired object graph shared by the TUI and the subcommands.
type app struct {
	cfg      config.AppConfig
	adapter  storage.Adapter
	store    *chat.Store
	router   *router.Router
	ctrl     *lifecycle.Controller
	exporter *export.Exporter
	log      *slog.Logger
}

// resolveConfig layers defaults, the config file, the environment, and the
// flags that were set explicitly.
func resolveConfig(cmd *cobra.Command) (config.AppConfig, error) {
	cfg, err := config.Load(cfgFile, os.Getenv)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = endpointFlag
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeoutFlag
	}
	if flags.Changed("profile") {
		cfg.Profile = profileFlag
	}
	if flags.Changed("db-path") {
		cfg.DBPath = dbPathFlag
	}
	if flags.Changed("export-dir") {
		cfg.ExportDir = exportDirFlag
	}
	if flags.Changed("debug") {
		cfg.Debug = debugFlag
	}
	cfg.Ephemeral = ephemeralFlag

	if err := cfg.Finalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// openApp loads configuration and history and resolves the starting
// location: initial when given, otherwise the last location visited.
func openApp(cmd *cobra.Command, initial string) (*app, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.LogPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	logger.SetDebug(cfg.Debug)
	log := logger.Component("app")

	var adapter storage.Adapter
	if cfg.Ephemeral {
		mem := storage.NewMemory()
		mem.Quota = cfg.StorageQuota
		adapter = mem
	} else {
		db, err := storage.OpenSQLite(cfg.DBPath, cfg.StorageQuota)
		if err != nil {
			logger.Close()
			return nil, err
		}
		adapter = db
	}

	store := chat.Load(chat.Options{Adapter: adapter, Logger: logger.Component("store")})

	if initial == "" {
		if saved, ok, err := adapter.Get(storage.LocationKey); err == nil && ok {
			initial = string(saved)
		}
	}
	hist := router.NewHistory(initial, func(path string) {
		if err := adapter.Set(storage.LocationKey, []byte(path)); err != nil {
			log.Warn("remember location failed", "path", path, "err", err)
		}
	})
	r := router.New(hist, store, logger.Component("router"))

	client := analysis.NewClient(cfg.Endpoint, &http.Client{}, logger.Component("analysis"))
	ctrl := lifecycle.New(lifecycle.Options{
		Store:             store,
		Router:            r,
		Analyzer:          client,
		Timeout:           cfg.Timeout,
		ClearInputOnError: cfg.ClearInputOnError,
		Logger:            logger.Component("lifecycle"),
	})
	ctrl.Apply(r.Resolve())

	exp, err := export.New(cfg.ExportDir)
	if err != nil {
		_ = adapter.Close()
		logger.Close()
		return nil, err
	}

	log.Info("started", "profile", cfg.Profile, "db", cfg.DBPath, "ephemeral", cfg.Ephemeral,
		"sessions", store.Len(), "location", r.Location(), "endpoint", client.Endpoint())
	return &app{
		cfg:      cfg,
		adapter:  adapter,
		store:    store,
		router:   r,
		ctrl:     ctrl,
		exporter: exp,
		log:      log,
	}, nil
}

func (a *app) component(name string) *slog.Logger {
	return logger.Component(name)
}

func (a *app) Close() {
	if err := a.adapter.Close(); err != nil {
		a.log.Warn("close storage failed", "err", err)
	}
	logger.Close()
}
