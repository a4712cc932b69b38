package gormrepo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/app/replay"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("REALM_DB_DSN")
	if dsn == "" {
		t.Skip("REALM_DB_DSN is required for integration test")
	}
	return dsn
}

func openJournal(t *testing.T) BatchJournal {
	t.Helper()
	db, err := OpenPostgres(requireDSN(t))
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if _, err := ApplyMigrations(context.Background(), db, "../../../../db/migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewBatchJournal(db)
}

func TestBatchJournal_AppendAndListInOrder(t *testing.T) {
	j := openJournal(t)
	ctx := context.Background()
	session := "it-journal-" + uuid.NewString()

	for seq := uint64(1); seq <= 3; seq++ {
		b := world.Batch{
			ZoneID:    42,
			Seq:       seq,
			FetchedAt: time.Unix(1700000000+int64(seq), 0).UTC(),
			Snapshots: []world.EntitySnapshot{{ID: "g1", ZoneID: 42, Type: "gotchi", TileX: int(seq), TileY: 7}},
		}
		if err := j.Append(ctx, session, b); err != nil {
			t.Fatalf("append %d: %v", seq, err)
		}
	}
	if err := j.Append(ctx, session, world.Batch{ZoneID: 7, Seq: 1}); err != nil {
		t.Fatalf("append other zone: %v", err)
	}

	got, err := j.ListBySession(ctx, session, 42, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, e := range got {
		if got, want := e.Batch.Seq, uint64(i+1); got != want {
			t.Fatalf("entry %d seq mismatch: got=%d want=%d", i, got, want)
		}
	}
	if got, want := got[2].Batch.Snapshots[0].TileX, 3; got != want {
		t.Fatalf("payload mismatch: got=%d want=%d", got, want)
	}

	all, err := j.ListBySession(ctx, session, ports.AllZones, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 entries across zones, got %d", len(all))
	}

	sessions, err := j.Sessions(ctx, 0)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	found := false
	for _, s := range sessions {
		if s.SessionID == session {
			found = true
			if s.Batches != 4 {
				t.Fatalf("expected 4 batches on session, got %d", s.Batches)
			}
		}
	}
	if !found {
		t.Fatalf("session %s not listed", session)
	}

	out, err := replay.UseCase{Journal: j}.Execute(ctx, replay.Request{SessionID: session, ZoneID: 42})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(out.LiveIDs) != 1 || out.LiveIDs[0] != "g1" {
		t.Fatalf("unexpected live ids %v", out.LiveIDs)
	}
}

func TestBatchJournal_UnknownSessionIsNotFound(t *testing.T) {
	j := openJournal(t)
	_, err := j.ListBySession(context.Background(), "it-missing-"+uuid.NewString(), ports.AllZones, 0)
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
