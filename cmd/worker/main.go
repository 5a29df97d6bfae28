package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/app/bootstrap"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, "configs/default.yaml")
	if err != nil {
		log.Fatalf("bootstrap worker runtime: %v", err)
	}
	if err := runtime.RunWorker(ctx); err != nil {
		log.Fatalf("run worker: %v", err)
	}
}
