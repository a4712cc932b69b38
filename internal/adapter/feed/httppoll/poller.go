package httppoll

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/dustin/go-humanize"
	"github.com/remeh/sizedwaitgroup"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

var ErrUnexpectedStatus = errors.New("unexpected snapshot status")

type Config struct {
	BaseURL           string
	Zones             []world.ZoneID
	Interval          time.Duration
	MaxInFlight       int
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Getter is the subset of the hertz client the poller uses.
type Getter interface {
	GetTimeout(ctx context.Context, dst []byte, url string, timeout time.Duration) (int, []byte, error)
}

type hertzGetter struct {
	c *client.Client
}

func (g hertzGetter) GetTimeout(ctx context.Context, dst []byte, url string, timeout time.Duration) (int, []byte, error) {
	return g.c.GetTimeout(ctx, dst, url, timeout)
}

type snapshotResponse struct {
	EntitySnapshots []world.EntitySnapshot `json:"entitySnapshots"`
}

// Poller fetches every configured zone on a fixed interval. Requests are
// not serialized; each carries a per-zone sequence number taken when it is
// issued so late responses can be dropped downstream.
type Poller struct {
	cfg     Config
	get     Getter
	limiter *rate.Limiter
	log     logrus.FieldLogger
	now     func() time.Time

	mu  sync.Mutex
	seq map[world.ZoneID]uint64
}

func New(cfg Config, log logrus.FieldLogger) (*Poller, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	c, err := client.NewClient(
		client.WithDialTimeout(2*time.Second),
		client.WithClientReadTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("build hertz client: %w", err)
	}
	return NewWithGetter(cfg, hertzGetter{c: c}, log), nil
}

func NewWithGetter(cfg Config, get Getter, log logrus.FieldLogger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Poller{
		cfg:     cfg,
		get:     get,
		limiter: rate.NewLimiter(limit, max(1, len(cfg.Zones))),
		log:     log.WithField("source", "httppoll"),
		now:     time.Now,
		seq:     map[world.ZoneID]uint64{},
	}
}

// Run polls until ctx is done. Failed fetches are logged and the zone keeps
// its last state.
func (p *Poller) Run(ctx context.Context, out chan<- world.Batch) error {
	wg := sizedwaitgroup.New(p.cfg.MaxInFlight)
	defer wg.Wait()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		for _, zone := range p.cfg.Zones {
			if err := wg.AddWithContext(ctx); err != nil {
				return nil
			}
			seq := p.nextSeq(zone)
			go func() {
				defer wg.Done()
				if err := p.fetch(ctx, zone, seq, out); err != nil && ctx.Err() == nil {
					p.log.WithError(err).WithFields(logrus.Fields{"zone": zone, "seq": seq}).Warn("snapshot fetch failed")
				}
			}()
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *Poller) nextSeq(zone world.ZoneID) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq[zone]++
	return p.seq[zone]
}

func (p *Poller) url(zone world.ZoneID) string {
	return fmt.Sprintf("%s/zones/%d/snapshot", p.cfg.BaseURL, zone)
}

func (p *Poller) fetch(ctx context.Context, zone world.ZoneID, seq uint64, out chan<- world.Batch) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	status, body, err := p.get.GetTimeout(ctx, nil, p.url(zone), p.cfg.Timeout)
	if err != nil {
		return fmt.Errorf("get %s: %w", p.url(zone), err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
	}
	b, err := Decode(zone, body)
	if err != nil {
		return err
	}
	b.Seq = seq
	b.FetchedAt = p.now()
	p.log.WithFields(logrus.Fields{
		"zone":     zone,
		"seq":      seq,
		"entities": len(b.Snapshots),
		"payload":  humanize.Bytes(uint64(len(body))),
	}).Debug("snapshot fetched")

	select {
	case out <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Decode parses a snapshot response body into a batch for zone.
func Decode(zone world.ZoneID, body []byte) (world.Batch, error) {
	var resp snapshotResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return world.Batch{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return world.Batch{ZoneID: zone, Snapshots: resp.EntitySnapshots}, nil
}
