package main

import (
	"os"
	"os/signal"
	"syscall"

	"tripcast/internal/bootstrap"
	"tripcast/pkg/logger"
)

func main() {
	container := bootstrap.NewContainer()
	container.MustInit()
	defer logger.Sync()

	if err := container.Start(); err != nil {
		container.Log.Fatalf("Failed to start: %v", err)
	}

	waitForShutdown(container)
}

// waitForShutdown blocks until a termination signal or a fatal component
// failure, then shuts the container down gracefully
func waitForShutdown(container *bootstrap.Container) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		container.Log.Infof("Received signal %s, shutting down...", sig)
	case <-container.Context.Done():
		container.Log.Info("Context cancelled, shutting down...")
	}

	container.Shutdown()
}
