package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/traitdex/traitdex/internal/config"
	"github.com/traitdex/traitdex/internal/daemon"
	"github.com/traitdex/traitdex/internal/logger"
	"github.com/traitdex/traitdex/internal/registry"
	"github.com/traitdex/traitdex/internal/spool"
	"github.com/traitdex/traitdex/internal/store"
	"github.com/traitdex/traitdex/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "traitdex-daemon: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger.Init(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})

	lifecycle := daemon.NewLifecycleManager(filepath.Dir(cfg.SocketPath), cfg.SocketPath)
	if err := lifecycle.AcquireInstanceLock(); err != nil {
		if lifecycle.IsSocketResponsive() {
			fmt.Println("daemon already running")
			return nil
		}
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	defer lifecycle.Cleanup()

	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	d := daemon.New(cfg.SocketPath, cfg.DataDir, cfg.Assets, registry.New(), st)

	if err := d.RestoreFromStore(); err != nil {
		return err
	}
	if err := d.ReloadAssets(); err != nil {
		logger.Warn("initial asset scan failed", "error", err)
	}
	if err := d.DrainSpool(spool.New(cfg.SpoolDir)); err != nil {
		logger.Warn("spool drain failed", "error", err)
	}

	if cfg.Watcher.Enabled {
		w, err := watcher.New(cfg.Watcher, d.HandleFileEvents)
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := w.Watch(cfg.DataDir); err != nil {
			return fmt.Errorf("failed to watch data dir: %w", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	if err := d.Start(); err != nil {
		return err
	}
	if err := lifecycle.RegisterRunningDaemon(); err != nil {
		d.Shutdown()
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		d.Shutdown()
	case <-d.Done():
	}

	return nil
}
