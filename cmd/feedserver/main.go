package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/slickgotchi/thereaalm/internal/adapter/http"
	worldruntime "github.com/slickgotchi/thereaalm/internal/adapter/world/runtime"
	"github.com/slickgotchi/thereaalm/internal/config"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
	"github.com/slickgotchi/thereaalm/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to feedserver.yaml")
	flag.Parse()
	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "feedserver:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadFeedServer(configPath)
	if err != nil {
		return err
	}
	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zones := make([]world.ZoneID, 0, len(cfg.Zones))
	for _, z := range cfg.Zones {
		zones = append(zones, world.ZoneID(z))
	}
	provider := worldruntime.NewProvider(worldruntime.Config{
		Layout: world.ZoneLayout{ZoneTiles: cfg.World.ZoneTiles, ZonesPerRow: cfg.World.ZonesPerRow},
		Zones:  zones,
		Seed:   uint64(cfg.Seed),
		Movers: cfg.Movers,
	})

	cache, err := httpadapter.NewSnapshotCache()
	if err != nil {
		return fmt.Errorf("snapshot cache: %w", err)
	}
	defer cache.Close()
	snapshots := httpadapter.SnapshotHandler{World: provider, Cache: cache, TTL: cfg.CacheTTL, Log: log}

	api := server.Default(server.WithHostPorts(cfg.Addr))
	snapshots.RegisterRoutes(api)
	push := &http.Server{
		Addr:              cfg.PushAddr,
		Handler:           httpadapter.NewPushHandler(snapshots, provider, log).Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return provider.Run(gctx, cfg.StepInterval) })
	g.Go(func() error {
		if err := api.Run(); err != nil && gctx.Err() == nil {
			return fmt.Errorf("snapshot api: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := push.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("push server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Join(api.Shutdown(sctx), push.Shutdown(sctx))
	})

	log.WithFields(logrus.Fields{
		"addr":  cfg.Addr,
		"push":  cfg.PushAddr,
		"zones": cfg.Zones,
		"step":  cfg.StepInterval,
	}).Info("feed server started")
	return g.Wait()
}
