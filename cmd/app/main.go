package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"TokenWatch/internal/di"
	"TokenWatch/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s redis=%s namespace=%s", cfg.Environment, cfg.Redis.Addr, cfg.Queue.Namespace)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
