// Command opsd runs the rockae runtime with health and metrics endpoints.
package main

import (
	"context"
	"log"

	"rockae/internal/bootstrap"
	"rockae/internal/config"
	"rockae/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() {
		if err := rt.Close(ctx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	h, err := server.NewHandlers(rt)
	if err != nil {
		log.Fatalf("Failed to build handlers: %v", err)
	}
	if err := server.Run(cfg.OpsAddr, server.NewMux(h)); err != nil {
		log.Printf("ops server stopped: %v", err)
	}
}
