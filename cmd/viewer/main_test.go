package main

import (
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/slickgotchi/thereaalm/internal/adapter/feed/httppoll"
	"github.com/slickgotchi/thereaalm/internal/adapter/feed/replayfeed"
	"github.com/slickgotchi/thereaalm/internal/adapter/feed/wsstream"
	"github.com/slickgotchi/thereaalm/internal/adapter/repo/memory"
	"github.com/slickgotchi/thereaalm/internal/config"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

func TestBuildSource_PerMode(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	j := memory.NewBatchJournal(memory.NewStore())
	zones := []world.ZoneID{42}
	cfg := config.Viewer{Feed: config.Feed{BaseURL: "http://localhost:8080", StreamURL: "http://localhost:8081"}}

	cfg.Feed.Mode = config.FeedModePoll
	src, err := buildSource(cfg, zones, j, log)
	if err != nil {
		t.Fatalf("poll source: %v", err)
	}
	if _, ok := src.(*httppoll.Poller); !ok {
		t.Fatalf("expected poller, got %T", src)
	}

	cfg.Feed.Mode = config.FeedModeWS
	src, _ = buildSource(cfg, zones, j, log)
	if _, ok := src.(*wsstream.Stream); !ok {
		t.Fatalf("expected stream, got %T", src)
	}

	cfg.Feed.Mode = config.FeedModeReplay
	src, _ = buildSource(cfg, zones, j, log)
	if _, ok := src.(replayfeed.Source); !ok {
		t.Fatalf("expected replay source, got %T", src)
	}

	cfg.Feed.Mode = "carrier-pigeon"
	if _, err := buildSource(cfg, zones, j, log); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestInitialCameraCentresFirstZone(t *testing.T) {
	layout := world.ZoneLayout{ZoneTiles: 100, ZonesPerRow: 10}
	cfg := config.Viewer{
		World:  config.World{TileSize: 10, ZoneTiles: 100, ZonesPerRow: 10},
		Window: config.Window{Width: 800, Height: 600},
	}
	cam := initialCamera(layout, 11, cfg)
	sx, sy := cam.WorldToScreen(1000+500, 1000+500)
	if sx < 399 || sx > 401 || sy < 299 || sy > 301 {
		t.Fatalf("zone centre not on screen centre: got=(%v,%v)", sx, sy)
	}
}
