// CLAUDE:SUMMARY Entry point: serve (HTTP API), mcp (stdio tools), import and export subcommands.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/api"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/assist"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/config"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/enroll"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/importer"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/kvstore"
	"github.com/moisessantoslimaadm-debug/matriculas/pkg/registry"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "import":
		cmdImport(os.Args[2:])
	case "export":
		cmdExport(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: matriculas <command>

Commands:
  serve    Start the HTTP API server
  mcp      Serve the registry tools over MCP stdio
  import   Import a data file into the registry
  export   Export the registry (backup, students, roster)
`)
}

// openStore opens the SQLite-backed registry under dataDir.
func openStore(dataDir string, logger *slog.Logger) (*registry.Store, *kvstore.SQLite, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	kv, err := kvstore.OpenSQLite(filepath.Join(dataDir, "registry.db"))
	if err != nil {
		return nil, nil, err
	}
	store, err := registry.NewStore(kv, logger)
	if err != nil {
		kv.Close()
		return nil, nil, err
	}
	return store, kv, nil
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg := config.MustLoad(*cfgPath)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	store, kv, err := openStore(cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to open registry", "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	journal, err := importer.OpenJournal(filepath.Join(cfg.DataDir, "imports.db"))
	if err != nil {
		logger.Error("failed to open import journal", "error", err)
		os.Exit(1)
	}
	defer journal.Close()

	schools, students := store.Counts()
	logger.Info("registry loaded", "schools", schools, "students", students)

	var assistant *assist.Assistant
	if cfg.OpenAI.ApiKey != "" {
		assistant = assist.New(cfg.OpenAI.ApiKey, cfg.OpenAI.Model,
			time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second, cfg.Municipality, store, logger)
	} else {
		logger.Info("no OpenAI key configured, chat disabled")
	}

	router := api.NewRouter(api.Deps{
		Store:      store,
		Imports:    importer.NewController(store, journal, logger),
		Journal:    journal,
		Enrollment: enroll.NewService(store, logger),
		Assistant:  assistant,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:    cfg.Listen.Addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("matriculas listening", "addr", cfg.Listen.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	srv.Shutdown(context.Background())
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	// MCP owns stdout; logs go to stderr only.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg := config.MustLoad(*cfgPath)

	store, kv, err := openStore(cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to open registry", "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	srv := server.NewMCPServer("matriculas", "1.0.0")
	api.RegisterMCPTools(srv, store)

	if err := server.ServeStdio(srv); err != nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
