package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/slickgotchi/thereaalm/internal/logging"
)

const (
	FeedModePoll   = "poll"
	FeedModeWS     = "ws"
	FeedModeReplay = "replay"
)

type Feed struct {
	BaseURL           string
	StreamURL         string
	Mode              string
	Zones             []int
	PollInterval      time.Duration
	MaxInFlight       int
	RequestsPerSecond float64
	RequestTimeout    time.Duration
}

type World struct {
	TileSize    int
	ZoneTiles   int
	ZonesPerRow int
}

// RouteBudget caps one grid-aware route search at PerTile expansions per
// tile of distance, never less than Floor.
type RouteBudget struct {
	PerTile int
	Floor   int
}

type Journal struct {
	Enabled       bool
	DSN           string
	MigrationsDir string
}

type Window struct {
	Width  int
	Height int
	Title  string
}

// Viewer is the configuration of cmd/viewer.
type Viewer struct {
	Feed          Feed
	World         World
	TileDuration  time.Duration
	HoldThreshold time.Duration
	RouteBudget   RouteBudget
	OpsAddr       string
	Journal       Journal
	ReplaySession string
	ReplaySpeed   float64
	Log           logging.Options
	Window        Window
	Headless      bool
	TickRate      int
	Seed          uint64
}

// FeedServer is the configuration of cmd/feedserver.
type FeedServer struct {
	Addr         string
	PushAddr     string
	World        World
	Zones        []int
	Seed         int64
	StepInterval time.Duration
	Movers       int
	CacheTTL     time.Duration
	Log          logging.Options
}

func newViper(prefix, name, path string) (*viper.Viper, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(name)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func setWorldDefaults(v *viper.Viper) {
	v.SetDefault("world.tile_size", 64)
	v.SetDefault("world.zone_tiles", 512)
	v.SetDefault("world.zones_per_row", 10)
}

func setLogDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

func world(v *viper.Viper) World {
	return World{
		TileSize:    v.GetInt("world.tile_size"),
		ZoneTiles:   v.GetInt("world.zone_tiles"),
		ZonesPerRow: v.GetInt("world.zones_per_row"),
	}
}

func logOptions(v *viper.Viper) logging.Options {
	return logging.Options{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		File:   v.GetString("log.file"),
	}
}

// LoadViewer reads defaults, an optional viewer.yaml (or path), .env and
// REALM_* environment variables, in increasing precedence.
func LoadViewer(path string) (Viewer, error) {
	v, err := newViper("REALM", "viewer", path)
	if err != nil {
		return Viewer{}, err
	}
	v.SetDefault("feed.base_url", "http://localhost:8080")
	v.SetDefault("feed.stream_url", "http://localhost:8081")
	v.SetDefault("feed.mode", FeedModePoll)
	v.SetDefault("feed.zones", "42")
	v.SetDefault("feed.poll_interval", 3*time.Second)
	v.SetDefault("feed.max_in_flight", 4)
	v.SetDefault("feed.requests_per_second", 10.0)
	v.SetDefault("feed.request_timeout", 5*time.Second)
	setWorldDefaults(v)
	v.SetDefault("motion.tile_duration", 200*time.Millisecond)
	v.SetDefault("selection.hold_threshold", 200*time.Millisecond)
	v.SetDefault("nav.route_budget_per_tile", 8)
	v.SetDefault("nav.route_budget_floor", 2048)
	v.SetDefault("ops.addr", ":8090")
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.dsn", "")
	v.SetDefault("journal.migrations_dir", "db/migrations")
	v.SetDefault("replay.session_id", "")
	v.SetDefault("replay.speed", 1.0)
	setLogDefaults(v)
	v.SetDefault("window.width", 1280)
	v.SetDefault("window.height", 720)
	v.SetDefault("window.title", "thereaalm viewer")
	v.SetDefault("viewer.headless", false)
	v.SetDefault("viewer.tick_rate", 60)
	v.SetDefault("viewer.seed", 0)

	zones, err := intList(fmt.Sprint(v.Get("feed.zones")))
	if err != nil {
		return Viewer{}, fmt.Errorf("feed.zones: %w", err)
	}
	cfg := Viewer{
		Feed: Feed{
			BaseURL:           strings.TrimRight(v.GetString("feed.base_url"), "/"),
			StreamURL:         strings.TrimRight(v.GetString("feed.stream_url"), "/"),
			Mode:              strings.ToLower(v.GetString("feed.mode")),
			Zones:             zones,
			PollInterval:      v.GetDuration("feed.poll_interval"),
			MaxInFlight:       v.GetInt("feed.max_in_flight"),
			RequestsPerSecond: v.GetFloat64("feed.requests_per_second"),
			RequestTimeout:    v.GetDuration("feed.request_timeout"),
		},
		World:         world(v),
		TileDuration:  v.GetDuration("motion.tile_duration"),
		HoldThreshold: v.GetDuration("selection.hold_threshold"),
		RouteBudget: RouteBudget{
			PerTile: v.GetInt("nav.route_budget_per_tile"),
			Floor:   v.GetInt("nav.route_budget_floor"),
		},
		OpsAddr:       v.GetString("ops.addr"),
		Journal: Journal{
			Enabled:       v.GetBool("journal.enabled"),
			DSN:           v.GetString("journal.dsn"),
			MigrationsDir: v.GetString("journal.migrations_dir"),
		},
		ReplaySession: v.GetString("replay.session_id"),
		ReplaySpeed:   v.GetFloat64("replay.speed"),
		Log:           logOptions(v),
		Window: Window{
			Width:  v.GetInt("window.width"),
			Height: v.GetInt("window.height"),
			Title:  v.GetString("window.title"),
		},
		Headless: v.GetBool("viewer.headless"),
		TickRate: v.GetInt("viewer.tick_rate"),
		Seed:     v.GetUint64("viewer.seed"),
	}
	return cfg, cfg.Validate()
}

func (c Viewer) Validate() error {
	switch c.Feed.Mode {
	case FeedModePoll:
		if c.Feed.BaseURL == "" {
			return errors.New("feed.base_url is required for poll mode")
		}
	case FeedModeWS:
		if c.Feed.StreamURL == "" {
			return errors.New("feed.stream_url is required for ws mode")
		}
	case FeedModeReplay:
		if c.ReplaySession == "" {
			return errors.New("replay.session_id is required for replay mode")
		}
	default:
		return fmt.Errorf("unknown feed.mode %q", c.Feed.Mode)
	}
	if len(c.Feed.Zones) == 0 {
		return errors.New("feed.zones must name at least one zone")
	}
	if c.World.TileSize <= 0 || c.World.ZoneTiles <= 0 || c.World.ZonesPerRow <= 0 {
		return errors.New("world dimensions must be positive")
	}
	if c.TickRate <= 0 {
		return errors.New("viewer.tick_rate must be positive")
	}
	if c.RouteBudget.PerTile < 0 || c.RouteBudget.Floor < 0 {
		return errors.New("nav route budget must not be negative")
	}
	return nil
}

// LoadFeedServer reads feedserver.yaml (or path) and FEED_* variables.
func LoadFeedServer(path string) (FeedServer, error) {
	v, err := newViper("FEED", "feedserver", path)
	if err != nil {
		return FeedServer{}, err
	}
	v.SetDefault("addr", ":8080")
	v.SetDefault("push_addr", ":8081")
	setWorldDefaults(v)
	v.SetDefault("zones", "42")
	v.SetDefault("seed", 42)
	v.SetDefault("step_interval", 3*time.Second)
	v.SetDefault("movers", 12)
	v.SetDefault("cache_ttl", time.Second)
	setLogDefaults(v)

	zones, err := intList(fmt.Sprint(v.Get("zones")))
	if err != nil {
		return FeedServer{}, fmt.Errorf("zones: %w", err)
	}
	return FeedServer{
		Addr:         v.GetString("addr"),
		PushAddr:     v.GetString("push_addr"),
		World:        world(v),
		Zones:        zones,
		Seed:         v.GetInt64("seed"),
		StepInterval: v.GetDuration("step_interval"),
		Movers:       v.GetInt("movers"),
		CacheTTL:     v.GetDuration("cache_ttl"),
		Log:          logOptions(v),
	}, nil
}

// intList parses "1,2 3" and "[1 2 3]" style lists.
func intList(raw string) ([]int, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' || r == '[' || r == ']' })
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", f, err)
		}
		out = append(out, n)
	}
	return out, nil
}
