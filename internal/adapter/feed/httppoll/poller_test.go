package httppoll

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

type fakeGetter struct {
	mu     sync.Mutex
	urls   []string
	status int
	body   string
	err    error
}

func (f *fakeGetter) GetTimeout(_ context.Context, _ []byte, url string, _ time.Duration) (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	if f.err != nil {
		return 0, nil, f.err
	}
	return f.status, []byte(f.body), nil
}

const body = `{"entitySnapshots":[{"id":"g1","zoneId":42,"type":"gotchi","tileX":5,"tileY":6,"data":{"direction":"up"}}]}`

func TestDecode(t *testing.T) {
	b, err := Decode(42, []byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got, want := len(b.Snapshots), 1; got != want {
		t.Fatalf("snapshot count mismatch: got=%d want=%d", got, want)
	}
	s := b.Snapshots[0]
	if s.ID != "g1" || s.Tile() != (world.Point{X: 5, Y: 6}) || s.FacingHint() != world.DirUp {
		t.Fatalf("unexpected snapshot %+v", s)
	}
	if _, err := Decode(42, []byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRunPollsEveryZoneWithIncreasingSeq(t *testing.T) {
	get := &fakeGetter{status: http.StatusOK, body: body}
	log, _ := logtest.NewNullLogger()
	p := NewWithGetter(Config{
		BaseURL:  "http://feed.local",
		Zones:    []world.ZoneID{42},
		Interval: 10 * time.Millisecond,
	}, get, log)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan world.Batch, 16)
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, out) }()

	var got []world.Batch
	for len(got) < 3 {
		select {
		case b := <-out:
			got = append(got, b)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for batches, got %d", len(got))
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	seen := map[uint64]bool{}
	for _, b := range got {
		if b.ZoneID != 42 || b.Seq == 0 || seen[b.Seq] {
			t.Fatalf("unexpected batch zone=%d seq=%d", b.ZoneID, b.Seq)
		}
		seen[b.Seq] = true
		if b.FetchedAt.IsZero() {
			t.Fatalf("expected fetch time")
		}
	}
	get.mu.Lock()
	defer get.mu.Unlock()
	if !strings.HasSuffix(get.urls[0], "/zones/42/snapshot") {
		t.Fatalf("unexpected url %q", get.urls[0])
	}
}

func TestFetchFailureIsReported(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	out := make(chan world.Batch, 1)

	p := NewWithGetter(Config{BaseURL: "http://feed.local", Zones: []world.ZoneID{1}}, &fakeGetter{status: http.StatusNotFound}, log)
	if err := p.fetch(context.Background(), 1, 1, out); !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}

	p = NewWithGetter(Config{BaseURL: "http://feed.local", Zones: []world.ZoneID{1}}, &fakeGetter{err: errors.New("refused")}, log)
	if err := p.fetch(context.Background(), 1, 1, out); err == nil {
		t.Fatalf("expected transport error")
	}
	if len(out) != 0 {
		t.Fatalf("failed fetch must not emit a batch")
	}
}
