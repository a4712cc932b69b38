package wsstream

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

type Config struct {
	// BaseURL is the feed server root; http(s) is rewritten to ws(s).
	BaseURL      string
	Zones        []world.ZoneID
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
}

// Stream keeps one websocket per zone open and forwards every pushed batch.
// Messages on a connection are ordered, so sequence numbers are assigned on
// receipt and keep increasing across reconnects.
type Stream struct {
	cfg    Config
	dialer *websocket.Dialer
	log    logrus.FieldLogger
	now    func() time.Time

	mu  sync.Mutex
	seq map[world.ZoneID]uint64
}

func New(cfg Config, log logrus.FieldLogger) *Stream {
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Stream{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		log:    log.WithField("source", "wsstream"),
		now:    time.Now,
		seq:    map[world.ZoneID]uint64{},
	}
}

func (s *Stream) Run(ctx context.Context, out chan<- world.Batch) error {
	var wg sync.WaitGroup
	for _, zone := range s.cfg.Zones {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.follow(ctx, zone, out)
		}()
	}
	wg.Wait()
	return nil
}

// URL is the push endpoint of a zone.
func URL(base string, zone world.ZoneID) string {
	u := strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return fmt.Sprintf("%s/ws/zones/%d", u, zone)
}

// backoff doubles the retry delay on every failed attempt up to max. A
// session that got connected starts the next series from base again.
type backoff struct {
	base, max, cur time.Duration
}

func (b *backoff) next(connected bool) time.Duration {
	if connected || b.cur <= 0 {
		b.cur = b.base
	}
	d := b.cur
	b.cur = min(b.cur*2, b.max)
	return d
}

func (s *Stream) follow(ctx context.Context, zone world.ZoneID, out chan<- world.Batch) {
	retry := backoff{base: s.cfg.RetryBackoff, max: s.cfg.MaxBackoff}
	log := s.log.WithField("zone", zone)
	for ctx.Err() == nil {
		connected, err := s.session(ctx, zone, out)
		if ctx.Err() != nil {
			return
		}
		wait := retry.next(connected)
		log.WithError(err).WithField("retry_in", wait).Warn("zone stream closed")
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// session reports whether the dial succeeded along with the error that
// ended it.
func (s *Stream) session(ctx context.Context, zone world.ZoneID, out chan<- world.Batch) (bool, error) {
	conn, _, err := s.dialer.DialContext(ctx, URL(s.cfg.BaseURL, zone), nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		var b world.Batch
		if err := sonic.Unmarshal(payload, &b); err != nil {
			s.log.WithError(err).WithField("zone", zone).Warn("discarding malformed batch")
			continue
		}
		b.ZoneID = zone
		b.Seq = s.nextSeq(zone)
		b.FetchedAt = s.now()
		select {
		case out <- b:
		case <-ctx.Done():
			return true, ctx.Err()
		}
	}
}

func (s *Stream) nextSeq(zone world.ZoneID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[zone]++
	return s.seq[zone]
}
