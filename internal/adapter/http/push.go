package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

const pushWriteWait = 5 * time.Second

// PushWorld is a ZoneWorld that can signal when a zone changed.
type PushWorld interface {
	ZoneWorld
	Subscribe(zone world.ZoneID) (<-chan struct{}, func(), error)
}

// PushHandler streams a zone's snapshot over a websocket after every world
// step, starting with the current one. Served on net/http at
// /ws/zones/{zone}.
type PushHandler struct {
	Snapshots SnapshotHandler
	World     PushWorld
	Log       logrus.FieldLogger

	upgrader websocket.Upgrader
}

func NewPushHandler(snapshots SnapshotHandler, w PushWorld, log logrus.FieldLogger) *PushHandler {
	return &PushHandler{
		Snapshots: snapshots,
		World:     w,
		Log:       log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *PushHandler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws/zones/", h)
	return mux
}

func (h *PushHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	zone, err := parseZone(strings.TrimPrefix(r.URL.Path, "/ws/zones/"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	signal, cancel, err := h.World.Subscribe(zone)
	if errors.Is(err, ports.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()
	go func() {
		// Reads only detect the client going away.
		defer stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log := h.Log.WithField("zone", zone)
	log.Info("push subscriber connected")
	defer log.Info("push subscriber disconnected")

	if err := h.send(ctx, conn, zone); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-signal:
			if err := h.send(ctx, conn, zone); err != nil {
				log.WithError(err).Debug("push write failed")
				return
			}
		}
	}
}

func (h *PushHandler) send(ctx context.Context, conn *websocket.Conn, zone world.ZoneID) error {
	body, err := h.Snapshots.encoded(ctx, zone)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(pushWriteWait))
	return conn.WriteMessage(websocket.TextMessage, body)
}
