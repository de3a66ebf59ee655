package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/rota-scheduler/pkg/app"
	"github.com/arnavshah/rota-scheduler/pkg/config"
	"github.com/arnavshah/rota-scheduler/pkg/handlers"
)

func main() {
	config.LoadDotEnv()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	h, err := app.NewHandler(context.Background(), cfg)
	if err != nil {
		log.Fatalf("could not initialise: %v", err)
	}

	r := handlers.Router(h)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
