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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"honesttravel/autocomplete"
	"honesttravel/config"
	"honesttravel/database"
	"honesttravel/flow"
	"honesttravel/gazetteer"
	"honesttravel/handlers"
	"honesttravel/logging"
	"honesttravel/metrics"
	"honesttravel/services"
	"honesttravel/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Release())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Gazetteer
	var cities *gazetteer.Gazetteer
	var err error
	if cfg.GazetteerPath != "" {
		cities, err = gazetteer.LoadFile(cfg.GazetteerPath, logger)
	} else {
		cities, err = gazetteer.Default(logger)
	}
	if err != nil {
		return err
	}
	logger.Info("gazetteer loaded", zap.Int("countries", cities.Len()))

	// Sessions
	sessions, err := session.OpenBadger(cfg.SessionDBPath, cfg.SessionTTL, logging.NewBadgerLogger(logger))
	if err != nil {
		return err
	}
	defer sessions.Close()
	if cfg.SessionDBPath == "" {
		logger.Warn("SESSION_DB_PATH not set, sessions are kept in memory")
	}

	collector := metrics.NewCollector("honesttravel")
	opts := services.ClientOptions{Observer: collector, Logger: logger}

	// Orders ledger is optional
	var ledger flow.OrderLedger
	var ledgerPing handlers.Pinger
	if cfg.DatabaseURL != "" {
		l, err := database.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer l.Close()
		ledger, ledgerPing = l, l
	} else {
		logger.Warn("DATABASE_URL not set, orders are not recorded")
	}

	catalog, err := services.DefaultCatalog()
	if err != nil {
		return err
	}
	images := services.NewUnsplashClient(cfg.UnsplashAccessKey, "", cfg.GatewayTimeout, opts)

	controller := flow.New(flow.Deps{
		Sessions:        sessions,
		Content:         services.NewContentClient(cfg.ContentAPIURL, cfg.GatewayTimeout, opts),
		Hotels:          services.NewHotelClient(cfg.HotelAPIURL, cfg.GatewayTimeout, opts),
		Images:          images,
		Payments:        services.NewStripePayments(cfg.StripeSecretKey, cfg.FrontendBase(), nil, opts),
		Catalog:         catalog,
		Ledger:          ledger,
		Observer:        collector,
		Logger:          logger,
		PrefetchTimeout: cfg.PrefetchTimeout,
	})
	defer controller.Close()

	h := handlers.New(handlers.Deps{
		Flow:      controller,
		Engine:    autocomplete.NewEngine(cities),
		Debouncer: autocomplete.NewDebouncer(cfg.DebounceDelay),
		Images:    images,
		Ledger:    ledgerPing,
		Metrics:   collector.Handler(),
		Logger:    logger,
	})

	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Trusted proxies (the deployment sits behind a proxy)
	if err := r.SetTrustedProxies([]string{"0.0.0.0/0"}); err != nil {
		return err
	}

	// CORS: allow configured frontend origins; the session cookie needs credentials
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURLs,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(
		handlers.Recovery(logger),
		handlers.Sessions(cfg.SessionTTL, cfg.Release()),
		handlers.RequestLogger(logger, collector),
	)
	h.Register(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Honest Travel backend starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
