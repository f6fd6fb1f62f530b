package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sflstudio/internal/catalog"
	"sflstudio/internal/config"
	"sflstudio/internal/keystore"
	"sflstudio/internal/llm"
	"sflstudio/internal/logging"
	"sflstudio/internal/prompts"
	"sflstudio/internal/providerstore"
	serverhttp "sflstudio/internal/server/http"
	"sflstudio/internal/sessioncache"
)

func newServeCommand(flags *rootFlags) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configFile)
			if err != nil {
				return err
			}
			if flags.debug {
				cfg.Debug = true
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "Listen host")
	cmd.Flags().IntVar(&port, "port", 8688, "Listen port")
	return cmd
}

func runServe(cfg *config.Config) error {
	if cfg.Debug {
		logging.SetLevel(logging.DEBUG)
	}
	logger := logging.NewComponentLogger("Main")
	logger.Info("starting SFL Prompt Studio %s", serverhttp.Version)

	cat := catalog.Default()

	var storage sessioncache.Storage
	if cfg.PersistSession {
		storage = sessioncache.NewFileStorage(filepath.Join(cfg.DataDir, "session"))
	} else {
		storage = sessioncache.NewMemoryStorage()
	}
	cache := sessioncache.New(storage)

	keys, err := keystore.New(filepath.Join(cfg.DataDir, "keys.json"))
	if err != nil {
		return fmt.Errorf("open keystore: %w", err)
	}
	promptStore, err := prompts.NewStore(filepath.Join(cfg.DataDir, "prompts"))
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}

	store := providerstore.New(cat, providerstore.WithSessionCache(cache))
	store.MarkConfigured(keys.Configured())
	// Pick up the previous selection if a live cache entry survives.
	store.Restore()

	server := serverhttp.NewServer(serverhttp.ServerConfig{
		Addr:             cfg.Addr(),
		Debug:            cfg.Debug,
		AllowedOrigins:   cfg.AllowedOrigins,
		BaseURLOverrides: cfg.ProviderBaseURLs,
	}, serverhttp.Deps{
		Catalog:   cat,
		Store:     store,
		Cache:     cache,
		Keys:      keys,
		Prompts:   promptStore,
		Validator: llm.NewService(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
