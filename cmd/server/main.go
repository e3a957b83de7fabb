// cmd/server/main.go
// The dealparse API server exposes the extraction engines over HTTP: episode
// page extraction, memo parsing, health, and Prometheus metrics.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundscope/dealparse/internal/config"
	"github.com/fundscope/dealparse/internal/fetch"
	"github.com/fundscope/dealparse/internal/monitoring"
)

func main() {
	configFile := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	client := fetch.New(fetch.Config{
		Timeout:       cfg.Fetch.Timeout.Std(),
		RetryAttempts: cfg.Fetch.RetryAttempts,
		RetryDelay:    cfg.Fetch.RetryDelay.Std(),
		RateLimit:     cfg.Fetch.RateLimit,
		RateBurst:     cfg.Fetch.RateBurst,
		UserAgents:    cfg.Fetch.UserAgents,
		AllowedHosts:  cfg.Source.AllowedHosts,
	})

	metrics := monitoring.New(cfg.Metrics.Namespace)
	srv := newServer(fetchAdapter{client: client}, metrics)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.routes(cfg.Metrics.Path, cfg.Metrics.Enabled),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	go func() {
		log.Printf("dealparse server listening on %s", cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func loadConfig(filename string) (*config.Config, error) {
	if filename == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(filename)
}
