package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/dorakhq/dorak/config"
	"github.com/dorakhq/dorak/internal/app"
)

func main() {
	cfgPath := flag.String("config", "", "path to a yaml config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found")
	}

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err = app.Run(context.Background(), cfg); err != nil {
		log.Fatalf("failed to run app: %v", err)
	}
}
