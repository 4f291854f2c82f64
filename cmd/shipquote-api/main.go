// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shipquote/internal/config"
	httptransport "shipquote/internal/http"
	"shipquote/internal/infra"
	"shipquote/internal/log"
	"shipquote/internal/maps"
	"shipquote/internal/modules/booking"
	"shipquote/internal/modules/pricing"
	"shipquote/internal/modules/quote"
	"shipquote/internal/modules/ratecard"
	"shipquote/internal/modules/tenant"
	"shipquote/internal/modules/zone"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(fatal("load config", err))
	}
	if err := log.Init(cfg.Env, cfg.Log.Level); err != nil {
		os.Exit(fatal("init logging", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		os.Exit(fatal("connect postgres", err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	zoneStore := zone.NewStore(dbPool)
	zoneSources := []zone.PincodeSource{zoneStore}
	if cfg.Maps.APIKey != "" {
		geo, err := maps.NewGeocodeService(cfg.Maps.APIKey)
		if err != nil {
			os.Exit(fatal("init maps client", err))
		}
		zoneSources = append(zoneSources, zone.NewGeocodeSource(geo))
	}
	zoneResolver := zone.NewResolver(zoneStore, zoneSources...)

	cardStore := ratecard.NewStore(dbPool)
	tenantStore := tenant.NewStore(dbPool)
	selector := ratecard.NewSelector(cardStore, tenantStore)

	pricer := pricing.NewService(zoneResolver, selector, cardStore, cfg.Pricing.GSTPercent)

	sessionStore := quote.NewStore(dbPool, redisClient)
	catalog := quote.NewCatalog(dbPool)
	builder := quote.NewBuilder(
		pricer, catalog, tenantStore, sessionStore,
		quote.NewDefaultRanker(),
		cfg.Quote.SessionTTL, cfg.Quote.WorkerPoolSize, cfg.Quote.EnableReverseQuotes,
	)

	adapters := booking.NewRegistry()
	registerAdapters(ctx, adapters, catalog)
	resolver := booking.NewResolver(
		sessionStore,
		booking.NewLock(redisClient, cfg.Booking.LockTTL),
		booking.NewStore(dbPool),
		adapters,
		cfg.Booking.AttemptTimeout,
	)

	router := httptransport.NewRouter(cfg.Env, httptransport.RouterDeps{
		Builder:  builder,
		Sessions: sessionStore,
		Resolver: resolver,
		Pricer:   pricer,
		Cards:    cardStore,
		Tenants:  tenantStore,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error(context.Background(), "server shutdown failed", log.Cause(err))
		}
	}()

	log.Info(ctx, "server starting", log.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		os.Exit(fatal("serve", err))
	}
}

// registerAdapters wires a simulator per catalog carrier. Real carrier API
// adapters replace these per deployment; a carrier without an adapter is
// simply skipped during the booking walk.
func registerAdapters(ctx context.Context, reg *booking.Registry, catalog *quote.Catalog) {
	cands, err := catalog.EligibleCandidates(ctx, "")
	if err != nil {
		log.Warn(ctx, "carrier catalog unavailable at boot", log.Cause(err))
		return
	}
	for _, c := range cands {
		reg.Register(c.Carrier, &booking.Simulator{Carrier: c.Carrier})
	}
}

func fatal(msg string, err error) int {
	log.Error(context.Background(), msg, log.Cause(err))
	log.Sync()
	return 1
}
