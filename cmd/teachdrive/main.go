// cmd/teachdrive/main.go
//
// Entry point for the teachdrive server. All application wiring lives in
// internal/app/bootstrap; WAFFLE drives the lifecycle from config loading
// through graceful shutdown.
package main

import (
	"context"
	"log"

	"github.com/teachdrive/teachdrive/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatalf("teachdrive exited with error: %v", err)
	}
}
