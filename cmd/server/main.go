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

	"temp-monitor/backend/internal/channel"
	"temp-monitor/backend/internal/config"
	"temp-monitor/backend/internal/control"
	"temp-monitor/backend/internal/db"
	"temp-monitor/backend/internal/db/migrate"
	readingrepo "temp-monitor/backend/internal/reading/repository"
	readingservice "temp-monitor/backend/internal/reading/service"
	"temp-monitor/backend/internal/security"
	"temp-monitor/backend/internal/server"
	sessionservice "temp-monitor/backend/internal/session/service"
	"temp-monitor/backend/internal/telemetry"
	"temp-monitor/backend/internal/telemetry/otel"
	thresholdrepo "temp-monitor/backend/internal/threshold/repository"
	thresholdservice "temp-monitor/backend/internal/threshold/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "temp-monitor-backend", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()
	events := otel.NewEventEmitter(providers.LoggerProvider)

	if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migrate: %v", err)
	}

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer sqlDB.Close()

	hasher := security.NewHasher(cfg.BcryptCost)
	registry, err := sessionservice.NewRegistry(cfg.CredentialList(), hasher)
	if err != nil {
		log.Fatalf("credential registry: %v", err)
	}
	authority := sessionservice.NewAuthority(registry, hasher)

	deps := server.Deps{
		Authority:  authority,
		Thresholds: thresholdservice.NewService(thresholdrepo.NewPostgresRepository(sqlDB), authority),
		Readings:   readingservice.NewService(readingrepo.NewPostgresRepository(sqlDB)),
		Dispatcher: control.NewDispatcher(authority),
		Pinger:     sqlDB,
		Events:     events,
	}

	var sensor *channel.Channel
	if cfg.MQTTBrokerAddr != "" {
		sensor = channel.New(channel.Config{
			BrokerAddr: cfg.MQTTBrokerAddr,
			Topic:      cfg.MQTTTopic,
		})
		if err := sensor.Start(ctx); err != nil {
			log.Fatalf("channel: %v", err)
		}
		deps.Channel = sensor
		log.Printf("sensor channel subscribing to %s on %s", cfg.MQTTTopic, cfg.MQTTBrokerAddr)
	} else {
		log.Print("MQTT_BROKER_ADDR not set; sensor channel disabled")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewMux(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if sensor != nil {
		sensor.Stop()
	}

	// Let in-flight async telemetry emits complete before the exporters go away.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("otel shutdown: %v", err)
	}
	log.Println("server stopped")
}
