package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

func entry(at int64, seq uint64, ids ...string) ports.JournalEntry {
	b := world.Batch{ZoneID: 3, Seq: seq}
	for _, id := range ids {
		b.Snapshots = append(b.Snapshots, world.EntitySnapshot{ID: id, ZoneID: 3, Type: "gotchi"})
	}
	return ports.JournalEntry{SessionID: "s1", Batch: b, RecordedAt: time.Unix(at, 0)}
}

func TestUseCase_ReconstructsLiveSetFromBatches(t *testing.T) {
	repo := fakeJournal{entries: []ports.JournalEntry{
		entry(100, 1, "A", "B", "C"),
		entry(103, 3, "B", "C", "D"),
		entry(104, 2, "Z"),
	}}
	out, err := UseCase{Journal: repo}.Execute(context.Background(), Request{SessionID: "s1", ZoneID: 3})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if diff := cmp.Diff([]string{"B", "C", "D"}, out.LiveIDs); diff != "" {
		t.Fatalf("live ids mismatch (-want +got):\n%s", diff)
	}
	if got, want := out.LastSeq, uint64(3); got != want {
		t.Fatalf("last seq mismatch: got=%d want=%d", got, want)
	}
	if got, want := out.Span, "4 seconds"; got != want {
		t.Fatalf("span mismatch: got=%q want=%q", got, want)
	}
}

func TestUseCase_FiltersByRecordedWindow(t *testing.T) {
	repo := fakeJournal{entries: []ports.JournalEntry{
		entry(100, 1, "A"),
		entry(200, 2, "B"),
		entry(300, 3, "C"),
	}}
	out, err := UseCase{Journal: repo}.Execute(context.Background(), Request{SessionID: "s1", ZoneID: 3, RecordedFrom: 150, RecordedTo: 250})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if got, want := len(out.Entries), 1; got != want {
		t.Fatalf("entry count mismatch: got=%d want=%d", got, want)
	}
	if diff := cmp.Diff([]string{"B"}, out.LiveIDs); diff != "" {
		t.Fatalf("live ids mismatch (-want +got):\n%s", diff)
	}
}

func TestUseCase_RejectsMissingSession(t *testing.T) {
	_, err := UseCase{Journal: fakeJournal{}}.Execute(context.Background(), Request{ZoneID: 1})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

type fakeJournal struct {
	entries []ports.JournalEntry
}

func (r fakeJournal) Append(context.Context, string, world.Batch) error {
	return nil
}

func (r fakeJournal) ListBySession(_ context.Context, _ string, _ world.ZoneID, _ int) ([]ports.JournalEntry, error) {
	return r.entries, nil
}
