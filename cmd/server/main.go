package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/torchlight-rpg/encounter-backend/internal/catalog"
	"github.com/torchlight-rpg/encounter-backend/internal/config"
	"github.com/torchlight-rpg/encounter-backend/internal/httpapi"
	"github.com/torchlight-rpg/encounter-backend/internal/hub"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cat *catalog.Store
	if cfg.CatalogDSN != "" {
		cat, err = catalog.Open(cfg.CatalogDSN)
		if err != nil {
			log.Fatal("catalog open failed", zap.Error(err))
		}
		seeded, err := cat.SeedIfEmpty()
		if err != nil {
			log.Fatal("catalog seed failed", zap.Error(err))
		}
		if seeded > 0 {
			log.Info("catalog seeded", zap.Int("entries", seeded))
		}
	} else {
		log.Info("no CATALOG_DSN set, catalog routes disabled")
	}

	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		log.Fatal("media dir create failed", zap.Error(err))
	}

	h := hub.NewHub(ctx, log)

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(h, cfg, cat, log),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
