package httpadapter

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route/param"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/slickgotchi/thereaalm/internal/adapter/feed/httppoll"
	worldruntime "github.com/slickgotchi/thereaalm/internal/adapter/world/runtime"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

type countingWorld struct {
	*worldruntime.Provider
	calls int
}

func (w *countingWorld) SnapshotForZone(ctx context.Context, zone world.ZoneID) ([]world.EntitySnapshot, error) {
	w.calls++
	return w.Provider.SnapshotForZone(ctx, zone)
}

func newWorld() *worldruntime.Provider {
	return worldruntime.NewProvider(worldruntime.Config{
		Layout: world.ZoneLayout{ZoneTiles: 64, ZonesPerRow: 10},
		Zones:  []world.ZoneID{42},
		Seed:   1,
		Extent: 16,
		Movers: 3,
	})
}

func quietLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

func TestSnapshot_ServesDecodableBatch(t *testing.T) {
	h := SnapshotHandler{World: newWorld(), Log: quietLogger()}
	ctx := &app.RequestContext{}
	ctx.Params = param.Params{{Key: "zone", Value: "42"}}
	h.snapshot(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	b, err := httppoll.Decode(42, ctx.Response.Body())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(b.Snapshots) == 0 {
		t.Fatalf("expected snapshots")
	}
	for _, s := range b.Snapshots {
		if s.ZoneID != 42 {
			t.Fatalf("snapshot %s zone mismatch: got=%d want=42", s.ID, s.ZoneID)
		}
	}
}

func TestSnapshot_BadAndUnknownZone(t *testing.T) {
	h := SnapshotHandler{World: newWorld()}
	for raw, want := range map[string]int{"x": consts.StatusBadRequest, "-1": consts.StatusBadRequest, "7": consts.StatusNotFound} {
		ctx := &app.RequestContext{}
		ctx.Params = param.Params{{Key: "zone", Value: raw}}
		h.snapshot(context.Background(), ctx)
		if got := ctx.Response.StatusCode(); got != want {
			t.Fatalf("zone %q status mismatch: got=%d want=%d", raw, got, want)
		}
	}
}

func TestSnapshot_CacheIsKeyedByVersion(t *testing.T) {
	cache, err := NewSnapshotCache()
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	defer cache.Close()
	w := &countingWorld{Provider: newWorld()}
	h := SnapshotHandler{World: w, Cache: cache, TTL: time.Minute}

	first, err := h.encoded(context.Background(), 42)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	cache.Wait()
	again, err := h.encoded(context.Background(), 42)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(first) != string(again) {
		t.Fatalf("same version must serve identical bytes")
	}
	if got, want := w.calls, 1; got != want {
		t.Fatalf("snapshot builds mismatch: got=%d want=%d", got, want)
	}

	w.Step()
	if _, err := h.encoded(context.Background(), 42); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got, want := w.calls, 2; got != want {
		t.Fatalf("new version must rebuild: got=%d want=%d", got, want)
	}
}

func TestPush_StreamsInitialAndSteppedSnapshots(t *testing.T) {
	w := newWorld()
	log := quietLogger()
	h := NewPushHandler(SnapshotHandler{World: w, Log: log}, w, log)
	srv := httptest.NewServer(h.Mux())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/zones/42"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	read := func() world.Batch {
		t.Helper()
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var b world.Batch
		if err := json.Unmarshal(payload, &b); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return b
	}
	if got := read(); len(got.Snapshots) == 0 {
		t.Fatalf("expected initial snapshot")
	}
	w.Step()
	if got := read(); len(got.Snapshots) == 0 {
		t.Fatalf("expected stepped snapshot")
	}
}

func TestPush_UnknownZone(t *testing.T) {
	w := newWorld()
	h := NewPushHandler(SnapshotHandler{World: w}, w, quietLogger())
	srv := httptest.NewServer(h.Mux())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/zones/7"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial failure")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}
