package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/slickgotchi/thereaalm/internal/adapter/feed/httppoll"
	"github.com/slickgotchi/thereaalm/internal/adapter/feed/replayfeed"
	"github.com/slickgotchi/thereaalm/internal/adapter/feed/wsstream"
	httpadapter "github.com/slickgotchi/thereaalm/internal/adapter/http"
	metricsinmem "github.com/slickgotchi/thereaalm/internal/adapter/metrics/inmemory"
	"github.com/slickgotchi/thereaalm/internal/adapter/render/camera"
	"github.com/slickgotchi/thereaalm/internal/adapter/render/scene"
	"github.com/slickgotchi/thereaalm/internal/adapter/render/window"
	gormrepo "github.com/slickgotchi/thereaalm/internal/adapter/repo/gorm"
	"github.com/slickgotchi/thereaalm/internal/adapter/repo/memory"
	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/app/replay"
	"github.com/slickgotchi/thereaalm/internal/app/selection"
	"github.com/slickgotchi/thereaalm/internal/app/session"
	"github.com/slickgotchi/thereaalm/internal/app/zonesync"
	"github.com/slickgotchi/thereaalm/internal/config"
	"github.com/slickgotchi/thereaalm/internal/domain/nav"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
	"github.com/slickgotchi/thereaalm/internal/logging"
)

const batchBuffer = 64

func main() {
	configPath := flag.String("config", "", "path to viewer.yaml")
	flag.Parse()
	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "viewer:", err)
		os.Exit(1)
	}
}

type journal interface {
	ports.BatchJournal
	ports.SessionLister
}

func run(configPath string) error {
	cfg, err := config.LoadViewer(configPath)
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

	j, err := openJournal(ctx, cfg.Journal, log)
	if err != nil {
		return err
	}
	sessionID := uuid.NewString()
	if cfg.Feed.Mode == config.FeedModeReplay {
		sessionID = ""
	}

	zones := zoneIDs(cfg.Feed.Zones)
	layout := world.ZoneLayout{ZoneTiles: cfg.World.ZoneTiles, ZonesPerRow: cfg.World.ZonesPerRow}
	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	}
	registry := zonesync.NewRegistry(zonesync.Config{
		Layout:       layout,
		TileSize:     cfg.World.TileSize,
		TileDuration: cfg.TileDuration,
		RouteBudget:  nav.Budget{PerTile: cfg.RouteBudget.PerTile, Floor: cfg.RouteBudget.Floor},
	}, rng, log)
	kpi := metricsinmem.NewRecorder()
	uc := zonesync.UseCase{
		Registry:  registry,
		Journal:   j,
		SessionID: sessionID,
		Metrics:   kpi,
		Log:       log,
	}

	cam := initialCamera(layout, zones[0], cfg)
	sel := selection.New(cfg.HoldThreshold, scene.Picker{Camera: cam, Registry: registry, TileSize: cfg.World.TileSize}, cam, log)
	batches := make(chan world.Batch, batchBuffer)
	sess := session.New(uc, sel, batches, log)
	defer sess.Close()

	source, err := buildSource(cfg, zones, j, log)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(batches)
		if err := source.Run(gctx, batches); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("feed %s: %w", cfg.Feed.Mode, err)
		}
		return nil
	})

	ops := server.Default(server.WithHostPorts(cfg.OpsAddr))
	httpadapter.Handler{
		KPI:      kpi,
		View:     sess,
		Sessions: j,
		ReplayUC: replay.UseCase{Journal: j},
	}.RegisterRoutes(ops)
	g.Go(func() error {
		if err := ops.Run(); err != nil && gctx.Err() == nil {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return ops.Shutdown(sctx)
	})

	log.WithFields(logrus.Fields{
		"mode":    cfg.Feed.Mode,
		"zones":   cfg.Feed.Zones,
		"session": sessionID,
		"ops":     cfg.OpsAddr,
	}).Info("viewer started")

	// ebiten must own the main goroutine.
	var renderErr error
	if cfg.Headless {
		renderErr = runHeadless(gctx, sess, cfg.TickRate)
	} else {
		opts := window.Options{Width: cfg.Window.Width, Height: cfg.Window.Height, Title: cfg.Window.Title}
		renderErr = window.Run(window.NewGame(gctx, sess, cam, scene.Scene{Camera: cam, TileSize: cfg.World.TileSize}, opts), opts)
	}
	stop()
	if err := g.Wait(); err != nil {
		return err
	}
	return renderErr
}

func openJournal(ctx context.Context, cfg config.Journal, log logrus.FieldLogger) (journal, error) {
	if !cfg.Enabled || cfg.DSN == "" {
		log.Info("journal: in-memory")
		return memory.NewBatchJournal(memory.NewStore()), nil
	}
	db, err := gormrepo.OpenPostgres(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if cfg.MigrationsDir != "" {
		applied, err := gormrepo.ApplyMigrations(ctx, db, cfg.MigrationsDir)
		if err != nil {
			return nil, fmt.Errorf("migrate journal: %w", err)
		}
		if len(applied) > 0 {
			log.WithField("versions", applied).Info("journal migrations applied")
		}
	}
	log.Info("journal: postgres")
	return gormrepo.NewBatchJournal(db), nil
}

func buildSource(cfg config.Viewer, zones []world.ZoneID, j ports.BatchJournal, log logrus.FieldLogger) (ports.SnapshotSource, error) {
	switch cfg.Feed.Mode {
	case config.FeedModePoll:
		return httppoll.New(httppoll.Config{
			BaseURL:           cfg.Feed.BaseURL,
			Zones:             zones,
			Interval:          cfg.Feed.PollInterval,
			MaxInFlight:       cfg.Feed.MaxInFlight,
			RequestsPerSecond: cfg.Feed.RequestsPerSecond,
			Timeout:           cfg.Feed.RequestTimeout,
		}, log)
	case config.FeedModeWS:
		return wsstream.New(wsstream.Config{BaseURL: cfg.Feed.StreamURL, Zones: zones}, log), nil
	case config.FeedModeReplay:
		return replayfeed.Source{
			Journal:   j,
			SessionID: cfg.ReplaySession,
			Zones:     zones,
			Speed:     cfg.ReplaySpeed,
			Log:       log,
		}, nil
	default:
		return nil, fmt.Errorf("unknown feed mode %q", cfg.Feed.Mode)
	}
}

// initialCamera fits the first zone into the window.
func initialCamera(layout world.ZoneLayout, zone world.ZoneID, cfg config.Viewer) *camera.Camera {
	zonePx := float64(layout.ZoneTiles * cfg.World.TileSize)
	cam := camera.New(min(float64(cfg.Window.Width), float64(cfg.Window.Height)) / zonePx)
	origin := world.PixelOf(layout.Origin(zone), cfg.World.TileSize)
	cam.CenterOn(origin.X+zonePx/2, origin.Y+zonePx/2, cfg.Window.Width, cfg.Window.Height)
	return cam
}

func runHeadless(ctx context.Context, sess *session.Session, tickRate int) error {
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			sess.Step(ctx, now.Sub(last))
			last = now
		}
	}
}

func zoneIDs(in []int) []world.ZoneID {
	out := make([]world.ZoneID, 0, len(in))
	for _, z := range in {
		out = append(out, world.ZoneID(z))
	}
	return out
}
