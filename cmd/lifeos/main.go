// Package main is the entry point for the lifeos CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"lifeos/internal/apiclient"
	"lifeos/internal/backend/lifeosapi"
	"lifeos/internal/cli"
	"lifeos/internal/commands"
	"lifeos/internal/config"
	"lifeos/internal/logging"
	"lifeos/internal/service"
	"lifeos/internal/tokenstore"
	"lifeos/internal/tui"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		log := logging.New(os.Stderr, cfg.Debug)
		store, err := tokenstore.Open(cfg.StatePath())
		if err != nil {
			return nil, err
		}
		api := apiclient.New(cfg.BaseURL, store,
			apiclient.WithTimeout(cfg.Timeout),
			apiclient.WithLogger(log),
		)
		return lifeosapi.New(api, log), nil
	}

	commands.Register(&commands.TuiCmd{Launch: launch})

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)
	dispatcher.HasSession = func(cfg *config.Config) bool {
		store, err := tokenstore.Open(cfg.StatePath())
		return err == nil && store.HasSession()
	}

	os.Exit(dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// launch runs the interactive shell. Its log goes to a file because the
// terminal belongs to the program.
func launch(ctx context.Context, cfg *config.Config) error {
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0700); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}
	log, closer, err := logging.NewFile(cfg.LogPath, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer closer.Close()

	store, err := tokenstore.Open(cfg.StatePath())
	if err != nil {
		return err
	}
	api := apiclient.New(cfg.BaseURL, store,
		apiclient.WithTimeout(cfg.Timeout),
		apiclient.WithLogger(log),
	)
	m := tui.New(ctx, tui.Options{
		Service:       lifeosapi.New(api, log),
		Store:         store,
		Log:           log,
		ToastDisplay:  cfg.ToastDisplay,
		ToastCooldown: cfg.ToastCooldown,
	})
	api.SetSessionExpired(m.SessionExpired)
	return m.Run()
}
