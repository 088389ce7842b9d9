package main

import (
	"log"

	"github.com/prognoshealth/lambdarest/config"
	"github.com/prognoshealth/lambdarest/handler"
	"github.com/prognoshealth/lambdarest/internal/echo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	handler.New(handler.Restful(echo.Resource{}), cfg.HandlerOptions(logger)...).Start()
}
