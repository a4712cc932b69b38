package replayfeed

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/slickgotchi/thereaalm/internal/adapter/repo/memory"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

func TestSourceReplaysInOrderAtScaledPace(t *testing.T) {
	j := memory.NewBatchJournal(memory.NewStore())
	ctx := context.Background()
	for _, b := range []world.Batch{{ZoneID: 1, Seq: 1}, {ZoneID: 2, Seq: 1}, {ZoneID: 1, Seq: 2}} {
		if err := j.Append(ctx, "s1", b); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var waits []time.Duration
	log, _ := logtest.NewNullLogger()
	src := Source{Journal: j, SessionID: "s1", Zones: []world.ZoneID{1}, Speed: 2, Log: log}
	src.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	out := make(chan world.Batch, 4)
	if err := src.Run(ctx, out); err != nil {
		t.Fatalf("run: %v", err)
	}
	close(out)
	var seqs []uint64
	for b := range out {
		if b.ZoneID != 1 {
			t.Fatalf("unexpected zone %d", b.ZoneID)
		}
		seqs = append(seqs, b.Seq)
	}
	if diff := cmp.Diff([]uint64{1, 2}, seqs); diff != "" {
		t.Fatalf("seq mismatch (-want +got):\n%s", diff)
	}
	for _, d := range waits {
		if d < 0 {
			t.Fatalf("negative wait %s", d)
		}
	}
}

func TestSourceUnknownSessionFails(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	src := Source{Journal: memory.NewBatchJournal(memory.NewStore()), SessionID: "missing", Log: log}
	if err := src.Run(context.Background(), make(chan world.Batch)); err == nil {
		t.Fatalf("expected error for unknown session")
	}
}
