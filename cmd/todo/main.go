// Package main is the entry point for the todo CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"todosync/internal/backend/firebaseauth"
	"todosync/internal/backend/firestoredb"
	"todosync/internal/backend/sqlitekv"
	"todosync/internal/cli"
	"todosync/internal/commands"
	"todosync/internal/config"
	"todosync/internal/service"
	"todosync/internal/session"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newBackend)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newBackend connects the identity provider and the local profile store, and
// the document store once a session exists.
func newBackend(ctx context.Context, cfg *config.Config) (*service.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	log := cfg.Logger()

	auth, err := firebaseauth.New(ctx, cfg.Firebase.APIKey,
		session.File{Path: cfg.SessionPath()},
		firebaseauth.WithLogger(log),
		firebaseauth.WithTimeout(cfg.Firebase.APITimeout),
	)
	if err != nil {
		return nil, err
	}

	b := &service.Backend{Auth: auth, Collection: cfg.Collection()}

	images, err := sqlitekv.Open(cfg.ProfileDBPath())
	if err != nil {
		return nil, err
	}
	b.OnClose(images)
	b.Images = images

	if _, ok := auth.CurrentUser(); ok {
		store, err := firestoredb.New(ctx, cfg.Firebase, auth.TokenSource(ctx))
		if err != nil {
			b.Close()
			return nil, err
		}
		b.OnClose(store)
		b.Store = store
	}

	log.DebugContext(ctx, "backend ready", "project", cfg.Firebase.ProjectID, "signed_in", b.Store != nil)
	return b, nil
}
