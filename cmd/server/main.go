// Package main implements the entry point for the lexicon-srs server:
// a spaced-repetition scheduling and session engine for vocabulary
// study.
package main

import (
	"context"
	"log"

	"github.com/syh52/lexicon-srs/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
