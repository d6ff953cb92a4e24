package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mindmash-ai/mindmash/internal/api"
	"github.com/mindmash-ai/mindmash/internal/app"
	"github.com/mindmash-ai/mindmash/internal/config"
)

func main() {
	var (
		port  = flag.Int("port", 0, "Port to run the API server on (overrides config)")
		debug = flag.Bool("debug", false, "Enable debug mode")
	)
	flag.Parse()

	cfg, err := config.Load(*debug)
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	mash, err := app.New(cfg)
	if err != nil {
		log.Fatal("failed to initialize application", "error", err)
	}

	server, err := api.NewServer(cfg, mash)
	if err != nil {
		log.Fatal("failed to create server", "error", err)
	}

	fmt.Printf("🚀 Starting MindMash API Server\n")
	fmt.Printf("📡 Server: http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("🔗 Health: http://localhost:%d/api/v1/health\n", cfg.Server.Port)
	fmt.Printf("🔌 Events: ws://localhost:%d/api/v1/sessions/{id}/ws\n", cfg.Server.Port)
	if cfg.Offline {
		fmt.Printf("📴 Offline mode: replies are simulated locally\n")
	}

	go func() {
		if err := server.Start(cfg.Server.Port); err != nil {
			log.Error("server stopped", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	fmt.Println("\nShutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	mash.Shutdown()
}
