// README: Entry point; loads config, wires module services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/zoobzio/clockz"

	"dray/internal/config"
	httptransport "dray/internal/http"
	"dray/internal/infra"
	"dray/internal/modules/matching"
	"dray/internal/modules/order"
	"dray/internal/modules/partner"
	"dray/internal/modules/pricing"
	"dray/internal/modules/routing"
	"dray/internal/modules/stats"
)

func main() {
	// Optional .env for local development; real deployments set env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	clock := clockz.RealClock

	pricingStore := pricing.NewStore(dbPool)
	pricingSvc := pricing.NewService(pricingStore, clock)

	partnerStore := partner.NewStore(dbPool, redisClient)
	partnerSvc := partner.NewService(partnerStore, clock)

	orderStore := order.NewStore(dbPool)
	orderSvc := order.NewService(orderStore, partnerStore, pricingSvc, clock)

	matchingSvc := matching.NewService(partnerStore, pricingSvc, cfg.Matching).
		WithNearbyIndex(partnerStore)

	routingSvc := routing.NewService(partnerStore, orderStore)

	statsStore := stats.NewStore(dbPool)
	statsSvc := stats.NewService(statsStore, partnerStore, clock)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Order:    orderSvc,
		Partner:  partnerSvc,
		Matching: matchingSvc,
		Pricing:  pricingSvc,
		Routing:  routingSvc,
		Stats:    statsSvc,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("dray-api listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
