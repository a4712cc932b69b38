package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/go-cmp/cmp"

	"github.com/slickgotchi/thereaalm/internal/adapter/repo/memory"
	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/app/replay"
	"github.com/slickgotchi/thereaalm/internal/app/session"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

type fakeView struct{}

func (fakeView) FramesAny() any   { return []map[string]string{{"id": "g1"}} }
func (fakeView) SelectedAny() any { return map[string]string{"id": "g1"} }
func (fakeView) Status() session.Status {
	return session.Status{Steps: 3, Entities: 1}
}

type fakeKPI struct{}

func (fakeKPI) SnapshotAny() any { return map[string]int{"batches_applied": 2} }

func errorCode(t *testing.T, ctx *app.RequestContext) string {
	t.Helper()
	var body map[string]map[string]string
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return body["error"]["code"]
}

func TestWriteError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{ports.ErrNotFound, consts.StatusNotFound, "not_found"},
		{fmt.Errorf("wrapped: %w", ports.ErrNotFound), consts.StatusNotFound, "not_found"},
		{replay.ErrInvalidRequest, consts.StatusBadRequest, "bad_request"},
		{fmt.Errorf("%w: %q", errInvalidZone, "x"), consts.StatusBadRequest, "bad_request"},
		{errors.New("boom"), consts.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		ctx := &app.RequestContext{}
		writeError(ctx, tc.err)
		if got, want := ctx.Response.StatusCode(), tc.status; got != want {
			t.Fatalf("%v: status mismatch: got=%d want=%d", tc.err, got, want)
		}
		if got, want := errorCode(t, ctx), tc.code; got != want {
			t.Fatalf("%v: error code mismatch: got=%q want=%q", tc.err, got, want)
		}
	}
}

func TestOps_NotConfigured(t *testing.T) {
	h := Handler{}
	for name, fn := range map[string]app.HandlerFunc{
		"kpi":       h.kpi,
		"entities":  h.entities,
		"selection": h.selection,
		"status":    h.status,
		"sessions":  h.sessions,
		"replay":    h.replay,
	} {
		ctx := &app.RequestContext{}
		fn(context.Background(), ctx)
		if got, want := ctx.Response.StatusCode(), consts.StatusNotFound; got != want {
			t.Fatalf("%s: status mismatch: got=%d want=%d", name, got, want)
		}
		if got, want := errorCode(t, ctx), "not_configured"; got != want {
			t.Fatalf("%s: error code mismatch: got=%q want=%q", name, got, want)
		}
	}
}

func TestOps_EntitiesAndKPI(t *testing.T) {
	h := Handler{KPI: fakeKPI{}, View: fakeView{}}

	ctx := &app.RequestContext{}
	h.entities(context.Background(), ctx)
	var entities struct {
		Entities []map[string]string `json:"entities"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &entities); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]map[string]string{{"id": "g1"}}, entities.Entities); diff != "" {
		t.Fatalf("entities mismatch (-want +got):\n%s", diff)
	}

	ctx = &app.RequestContext{}
	h.kpi(context.Background(), ctx)
	var kpi map[string]int
	if err := json.Unmarshal(ctx.Response.Body(), &kpi); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, want := kpi["batches_applied"], 2; got != want {
		t.Fatalf("kpi mismatch: got=%d want=%d", got, want)
	}

	ctx = &app.RequestContext{}
	h.status(context.Background(), ctx)
	var st session.Status
	if err := json.Unmarshal(ctx.Response.Body(), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, want := st.Steps, uint64(3); got != want {
		t.Fatalf("steps mismatch: got=%d want=%d", got, want)
	}
}

func seededJournal(t *testing.T) memory.BatchJournal {
	t.Helper()
	j := memory.NewBatchJournal(memory.NewStore())
	for seq, ids := range [][]string{{"a", "b"}, {"b", "c"}} {
		b := world.Batch{ZoneID: 42, Seq: uint64(seq + 1)}
		for _, id := range ids {
			b.Snapshots = append(b.Snapshots, world.EntitySnapshot{ID: id, ZoneID: 42, Type: "gotchi"})
		}
		if err := j.Append(context.Background(), "s1", b); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return j
}

func TestOps_Replay(t *testing.T) {
	j := seededJournal(t)
	h := Handler{ReplayUC: replay.UseCase{Journal: j}, Sessions: j}

	ctx := &app.RequestContext{}
	ctx.Request.SetRequestURI("/ops/replay?session_id=s1&zone=42")
	h.replay(context.Background(), ctx)
	if got, want := ctx.Response.StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("status mismatch: got=%d want=%d body=%s", got, want, ctx.Response.Body())
	}
	var body struct {
		Entries int      `json:"entries"`
		LiveIDs []string `json:"live_ids"`
		LastSeq uint64   `json:"last_seq"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "c"}, body.LiveIDs); diff != "" {
		t.Fatalf("live ids mismatch (-want +got):\n%s", diff)
	}
	if got, want := body.LastSeq, uint64(2); got != want {
		t.Fatalf("last seq mismatch: got=%d want=%d", got, want)
	}

	ctx = &app.RequestContext{}
	ctx.Request.SetRequestURI("/ops/replay?session_id=missing&zone=42")
	h.replay(context.Background(), ctx)
	if got, want := ctx.Response.StatusCode(), consts.StatusNotFound; got != want {
		t.Fatalf("unknown session status mismatch: got=%d want=%d", got, want)
	}

	ctx = &app.RequestContext{}
	ctx.Request.SetRequestURI("/ops/replay?session_id=s1&zone=abc")
	h.replay(context.Background(), ctx)
	if got, want := errorCode(t, ctx), "invalid_zone"; got != want {
		t.Fatalf("error code mismatch: got=%q want=%q", got, want)
	}

	ctx = &app.RequestContext{}
	ctx.Request.SetRequestURI("/ops/sessions")
	h.sessions(context.Background(), ctx)
	var sessions struct {
		Sessions []ports.JournalSession `json:"sessions"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &sessions); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, want := len(sessions.Sessions), 1; got != want {
		t.Fatalf("sessions mismatch: got=%d want=%d", got, want)
	}
}
