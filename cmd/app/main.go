package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/ticketqueue/config"
	"github.com/Domenick1991/ticketqueue/internal/bootstrap"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer deps.Close()

	if err := bootstrap.Run(ctx, cfg, bootstrap.Services{
		Waitlist:     deps.Waitlist,
		Admission:    deps.Admission,
		Availability: deps.Availability,
		Sweeper:      deps.Sweeper,
	}); err != nil {
		log.Printf("server error: %v", err)
	}
}
