package main

import (
	"context"
	"database/sql"
	"fmt"
	"heritage-route-service/internal/adapters/cache"
	"heritage-route-service/internal/adapters/events"
	"heritage-route-service/internal/adapters/ors"
	"heritage-route-service/internal/adapters/render"
	"heritage-route-service/internal/adapters/repositories"
	"heritage-route-service/internal/api"
	"heritage-route-service/internal/config"
	"heritage-route-service/internal/platform/db"
	"heritage-route-service/internal/platform/report"
	"heritage-route-service/internal/ports"
	"heritage-route-service/internal/services"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

var version = "dev"

// main is the application composition root.
// It wires concrete adapters (SQL catalog, ORS, Redis, Kafka) behind ports and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := report.Setup(cfg.SentryDSN, cfg.Env, version); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	defer report.Flush()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	driver := db.Driver(cfg.DatabaseURL)
	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(conn, driver, cfg.SeedPath); err != nil {
		return err
	}
	repo := repositories.NewSQLNodeRepository(conn, driver)

	opts := []ors.Option{
		ors.WithBaseURL(cfg.ORSBaseURL),
		ors.WithTimeout(cfg.ORSTimeout),
		ors.WithMaxAttempts(cfg.ORSMaxAttempts),
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("redis unavailable addr=%s err=%v (provider caching disabled)", cfg.RedisAddr, err)
		} else {
			opts = append(opts,
				ors.WithDirectionsCache(cache.NewRedisDirectionsCache(rdb, cfg.CacheTTL)),
				ors.WithGeocodeCache(cache.NewRedisGeocodeCache(rdb, cfg.CacheTTL)),
			)
		}
	}

	// Without credentials the service still starts; route requests then fail
	// their precondition check and /v1/health reports not ready.
	var (
		directions ports.DirectionsProvider
		oracle     ports.OptimizationProvider
		geocoder   ports.Geocoder
	)
	client, err := ors.NewClient(cfg.ORSAPIKey, opts...)
	if err != nil {
		log.Printf("ORS client disabled: %v", err)
	} else {
		directions, oracle, geocoder = client, client, client
	}

	var ctrlOpts []services.ControllerOption
	if cfg.KafkaBroker != "" {
		pub := events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		defer pub.Close()
		ctrlOpts = append(ctrlOpts, services.WithEventPublisher(pub))
	}

	resolver := services.NewGeometryResolver(directions)
	ctrl := services.NewController(services.NewSequenceOptimizer(oracle), resolver, ctrlOpts...)

	router := api.NewRouter(api.Deps{
		Repo:       repo,
		Geocoder:   geocoder,
		Controller: ctrl,
		Layer:      render.NewGeoJSONLayer(),
		Ready:      resolver.HasProvider,
		Env:        cfg.Env,
		Version:    version,
	})

	// Timeouts are tuned for cold-cache route planning (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening addr=:%s env=%s", cfg.Port, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal %v, starting graceful shutdown", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("could not gracefully shutdown the server: %w", err)
	}
	ctrl.ClearRoute(ctx)

	log.Println("Server stopped")
	return nil
}

func initAndSeed(conn *sql.DB, driver, seedPath string) error {
	if err := repositories.InitSchema(conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if err := repositories.SeedFromJSON(conn, driver, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}
