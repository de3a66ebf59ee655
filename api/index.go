package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/arnavshah/rota-scheduler/pkg/app"
	"github.com/arnavshah/rota-scheduler/pkg/config"
	"github.com/arnavshah/rota-scheduler/pkg/handlers"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	h, err := app.NewHandler(context.Background(), cfg)
	if err != nil {
		log.Fatalf("could not initialise: %v", err)
	}
	r = handlers.Router(h)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, r_req *http.Request) {
	r.ServeHTTP(w, r_req)
}
