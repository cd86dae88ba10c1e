package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ha-tools/portfolio-tracker/internal/analytics"
	"github.com/ha-tools/portfolio-tracker/internal/api"
	"github.com/ha-tools/portfolio-tracker/internal/cache"
	"github.com/ha-tools/portfolio-tracker/internal/config"
	"github.com/ha-tools/portfolio-tracker/internal/coordinator"
	"github.com/ha-tools/portfolio-tracker/internal/events"
	"github.com/ha-tools/portfolio-tracker/internal/influx"
	"github.com/ha-tools/portfolio-tracker/internal/sheets"
	"github.com/ha-tools/portfolio-tracker/internal/status"
	"github.com/ha-tools/portfolio-tracker/internal/syncer"
)

const version = "1.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	influxClient, err := influx.New(cfg.InfluxDB)
	if err != nil {
		log.Fatalf("Failed to create InfluxDB client: %v", err)
	}
	defer influxClient.Close()

	// Connectivity problems at startup are logged, not fatal: the
	// coordinator keeps retrying on its own schedule.
	if err := influxClient.Ping(); err != nil {
		log.Printf("InfluxDB connection test failed, continuing anyway: %v", err)
	} else if err := influxClient.EnsureDatabase(); err != nil {
		log.Printf("Could not verify database access: %v", err)
	} else {
		log.Printf("InfluxDB connection successful, database %q ready", influxClient.Database())
	}

	sheetsClient, err := sheets.New(ctx, cfg.GoogleSheets)
	if err != nil {
		log.Fatalf("Failed to create Google Sheets client: %v", err)
	}
	if !sheetsClient.Configured() {
		log.Println("Google Sheets not configured, running with InfluxDB only")
	}

	sync := syncer.New(sheetsClient, influxClient)

	coord := coordinator.New(influxClient, sheetsClient, sync, cfg.Refresh.AutoSync, cfg.Refresh.Interval)
	if cfg.Redis.Addr != "" {
		snapshotStore := cache.New(cfg.Redis.Addr)
		defer snapshotStore.Close()
		coord.SetSnapshotCache(snapshotStore)
		log.Printf("Snapshot persistence enabled (redis at %s)", cfg.Redis.Addr)
	}

	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	handler := api.NewHandler(
		coord,
		sync,
		analytics.NewService(influxClient),
		status.NewReporter(influxClient, sheetsClient, version),
		producer,
	)

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: api.SetupRoutes(handler),
	}

	go func() {
		if err := coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Coordinator stopped: %v", err)
		}
	}()

	go func() {
		log.Printf("Portfolio Tracker %s listening on %s (refresh every %s)", version, srv.Addr, cfg.Refresh.Interval)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}
