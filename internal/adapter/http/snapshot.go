package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/sirupsen/logrus"

	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

var errInvalidZone = errors.New("invalid zone id")

// ZoneWorld is what the snapshot API serves from.
type ZoneWorld interface {
	Version(zone world.ZoneID) (uint64, error)
	SnapshotForZone(ctx context.Context, zone world.ZoneID) ([]world.EntitySnapshot, error)
}

type snapshotBody struct {
	EntitySnapshots []world.EntitySnapshot `json:"entitySnapshots"`
}

// NewSnapshotCache holds encoded zone snapshots keyed by zone and world
// version.
func NewSnapshotCache() (*ristretto.Cache[string, []byte], error) {
	return ristretto.NewCache[string, []byte](&ristretto.Config[string, []byte]{
		NumCounters: 10000,
		MaxCost:     32 * 1024 * 1024,
		BufferItems: 64,
	})
}

// SnapshotHandler serves GET /zones/:zone/snapshot for the viewer poller.
type SnapshotHandler struct {
	World ZoneWorld
	Cache *ristretto.Cache[string, []byte]
	TTL   time.Duration
	Log   logrus.FieldLogger
}

func (h SnapshotHandler) RegisterRoutes(s *server.Hertz) {
	zones := s.Group("/zones", corsMiddleware())
	zones.GET("/:zone/snapshot", h.snapshot)
	zones.OPTIONS("/:zone/snapshot", noContent)
}

func (h SnapshotHandler) snapshot(c context.Context, ctx *app.RequestContext) {
	zone, err := parseZone(ctx.Param("zone"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	body, err := h.encoded(c, zone)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Data(consts.StatusOK, "application/json", body)
}

func (h SnapshotHandler) encoded(ctx context.Context, zone world.ZoneID) ([]byte, error) {
	version, err := h.World.Version(zone)
	if err != nil {
		return nil, err
	}
	key := cacheKey(zone, version)
	if h.Cache != nil {
		if b, ok := h.Cache.Get(key); ok {
			return b, nil
		}
	}
	snaps, err := h.World.SnapshotForZone(ctx, zone)
	if err != nil {
		return nil, err
	}
	b, err := sonic.Marshal(snapshotBody{EntitySnapshots: snaps})
	if err != nil {
		return nil, fmt.Errorf("encode zone %d: %w", zone, err)
	}
	if h.Cache != nil {
		h.Cache.SetWithTTL(key, b, int64(len(b)), h.TTL)
	}
	if h.Log != nil {
		h.Log.WithFields(logrus.Fields{"zone": zone, "version": version, "entities": len(snaps)}).Debug("snapshot encoded")
	}
	return b, nil
}

func cacheKey(zone world.ZoneID, version uint64) string {
	return strconv.Itoa(int(zone)) + "|" + strconv.FormatUint(version, 10)
}

func parseZone(raw string) (world.ZoneID, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidZone, raw)
	}
	return world.ZoneID(n), nil
}
