package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/STTM-NSU/pricefeed/internal/config"
	"github.com/STTM-NSU/pricefeed/internal/hub"
	"github.com/STTM-NSU/pricefeed/internal/logger"
	"github.com/STTM-NSU/pricefeed/internal/market"
	"github.com/STTM-NSU/pricefeed/internal/server"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.LoadServerConfig(os.Getenv("FEED_SERVER_CONFIG"))
	if err != nil {
		log.Fatalf("%s: can't load server cfg", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%s: can't parse log level", err)
	}
	zapLogger, loggerSync, err := logger.NewZapLogger(level)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if envErr != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gen, err := market.NewGenerator(
		cfg.Instruments,
		market.NewSource(cfg.Tick.Seed),
		market.WithAlertThreshold(cfg.Tick.AlertThreshold),
	)
	if err != nil {
		zapLogger.Fatalf("%s: can't create generator", err)
	}

	h, err := hub.New(gen, hub.Config{
		Interval:            cfg.Tick.Interval,
		WriteTimeout:        cfg.Hub.WriteTimeout,
		PingPeriod:          cfg.Hub.PingPeriod,
		HandshakesPerSecond: cfg.Hub.HandshakesPerSecond,
		OutboxLimit:         cfg.Hub.OutboxLimit,
	}, zapLogger.Named("hub"))
	if err != nil {
		zapLogger.Fatalf("%s: can't create hub", err)
	}

	router := server.NewRouter(cfg.WSPath, h, h, zapLogger.Named("http"))
	srv := server.NewHTTPServer(ctx, cfg.Port, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.Run(gctx)
	})
	g.Go(func() error {
		zapLogger.Infof("feed server listening on :%s, push channel %s, %d instruments", cfg.Port, cfg.WSPath, len(cfg.Instruments))
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Fatalf("%s: feed server stopped", err)
	}
	zapLogger.Infof("feed server stopped")
}
