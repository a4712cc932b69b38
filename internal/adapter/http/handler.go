package httpadapter

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/app/replay"
	"github.com/slickgotchi/thereaalm/internal/app/session"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

// Handler serves the viewer's read-only ops endpoints. Every field is
// optional; unset ones answer 404 not_configured.
type Handler struct {
	KPI      kpiSnapshotProvider
	View     sessionView
	Sessions ports.SessionLister
	ReplayUC replay.UseCase
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

type sessionView interface {
	FramesAny() any
	SelectedAny() any
	Status() session.Status
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	ops := s.Group("/ops")
	ops.GET("/kpi", h.kpi)
	ops.GET("/entities", h.entities)
	ops.GET("/selection", h.selection)
	ops.GET("/status", h.status)
	ops.GET("/sessions", h.sessions)
	ops.GET("/replay", h.replay)
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func (h Handler) entities(_ context.Context, ctx *app.RequestContext) {
	if h.View == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "session not configured")
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"entities": h.View.FramesAny()})
}

func (h Handler) selection(_ context.Context, ctx *app.RequestContext) {
	if h.View == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "session not configured")
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"selected": h.View.SelectedAny()})
}

func (h Handler) status(_ context.Context, ctx *app.RequestContext) {
	if h.View == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "session not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.View.Status())
}

func (h Handler) sessions(c context.Context, ctx *app.RequestContext) {
	if h.Sessions == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "journal not configured")
		return
	}
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	out, err := h.Sessions.Sessions(c, limit)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"sessions": out})
}

func (h Handler) replay(c context.Context, ctx *app.RequestContext) {
	if h.ReplayUC.Journal == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "journal not configured")
		return
	}
	zone, err := strconv.Atoi(strings.TrimSpace(string(ctx.Query("zone"))))
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_zone", "zone must be an integer")
		return
	}
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	recordedFrom, _ := strconv.ParseInt(string(ctx.Query("recorded_from")), 10, 64)
	recordedTo, _ := strconv.ParseInt(string(ctx.Query("recorded_to")), 10, 64)
	resp, err := h.ReplayUC.Execute(c, replay.Request{
		SessionID:    string(ctx.Query("session_id")),
		ZoneID:       world.ZoneID(zone),
		Limit:        limit,
		RecordedFrom: recordedFrom,
		RecordedTo:   recordedTo,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"entries":  len(resp.Entries),
		"live_ids": resp.LiveIDs,
		"last_seq": resp.LastSeq,
		"span":     resp.Span,
	})
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, replay.ErrInvalidRequest),
		errors.Is(err, errInvalidZone):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
