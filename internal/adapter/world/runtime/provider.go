package runtime

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/domain/entity"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

// Config drives the simulated world served by the feed server. Only a square
// of Extent tiles at each zone origin is populated.
type Config struct {
	Layout  world.ZoneLayout
	Zones   []world.ZoneID
	Seed    uint64
	Extent  int
	Movers  int
	MaxStep int
}

func DefaultConfig() Config {
	return Config{
		Layout:  world.DefaultZoneLayout(),
		Zones:   []world.ZoneID{42},
		Seed:    42,
		Extent:  48,
		Movers:  12,
		MaxStep: 3,
	}
}

type mover struct {
	id       string
	kind     entity.Kind
	tile     world.Point
	dir      world.Direction
	pulse    int
	maxPulse int
	action   string
}

type zoneSim struct {
	id      world.ZoneID
	origin  world.Point
	rng     *rand.Rand
	statics []world.EntitySnapshot
	blocked map[world.Point]bool
	movers  []*mover
	version uint64
}

// Provider simulates static obstacles and wandering entities per zone.
type Provider struct {
	cfg Config

	mu    sync.RWMutex
	zones map[world.ZoneID]*zoneSim
	subs  map[world.ZoneID]map[chan struct{}]struct{}
}

func NewProvider(cfg Config) *Provider {
	def := DefaultConfig()
	if cfg.Layout.ZoneTiles <= 0 || cfg.Layout.ZonesPerRow <= 0 {
		cfg.Layout = def.Layout
	}
	if len(cfg.Zones) == 0 {
		cfg.Zones = def.Zones
	}
	if cfg.Extent <= 0 {
		cfg.Extent = def.Extent
	}
	cfg.Extent = min(cfg.Extent, cfg.Layout.ZoneTiles)
	if cfg.Movers < 0 {
		cfg.Movers = 0
	}
	if cfg.MaxStep <= 0 {
		cfg.MaxStep = def.MaxStep
	}
	p := &Provider{
		cfg:   cfg,
		zones: map[world.ZoneID]*zoneSim{},
		subs:  map[world.ZoneID]map[chan struct{}]struct{}{},
	}
	for _, id := range cfg.Zones {
		p.zones[id] = p.populate(id)
	}
	return p
}

func (p *Provider) populate(id world.ZoneID) *zoneSim {
	z := &zoneSim{
		id:      id,
		origin:  p.cfg.Layout.Origin(id),
		rng:     rand.New(rand.NewPCG(p.cfg.Seed, uint64(id)+1)),
		blocked: map[world.Point]bool{},
	}
	for y := 0; y < p.cfg.Extent; y++ {
		for x := 0; x < p.cfg.Extent; x++ {
			kind, ok := genTile(x, y, p.cfg.Extent)
			if !ok {
				continue
			}
			tile := z.origin.Add(x, y)
			caps := entity.CapabilitiesOf(kind)
			snap := world.EntitySnapshot{
				ID:     fmt.Sprintf("%s-%d-%d", kind, tile.X, tile.Y),
				ZoneID: id,
				Type:   string(kind),
				TileX:  tile.X,
				TileY:  tile.Y,
			}
			if caps.HealthTracked {
				snap.Data = staticStats
			}
			z.statics = append(z.statics, snap)
			if caps.StaticObstacle {
				z.blocked[tile] = true
			}
		}
	}
	for i := 0; i < p.cfg.Movers; i++ {
		kind := entity.KindGotchi
		if i%4 == 3 {
			kind = entity.KindLickquidator
		}
		m := &mover{
			id:       fmt.Sprintf("%s-%d-%d", kind, id, i),
			kind:     kind,
			tile:     z.freeTile(p.cfg.Extent),
			dir:      world.DirDown,
			maxPulse: 100,
			action:   "roam",
		}
		m.pulse = m.maxPulse
		z.movers = append(z.movers, m)
	}
	z.version = 1
	return z
}

func (z *zoneSim) freeTile(extent int) world.Point {
	for {
		p := z.origin.Add(z.rng.IntN(extent), z.rng.IntN(extent))
		if !z.blocked[p] {
			return p
		}
	}
}

// genTile picks the static kind at a local tile, if any. Bands around the
// populated square's centre get denser and harsher further out.
func genTile(x, y, extent int) (entity.Kind, bool) {
	c := extent / 2
	if x == c && y == c {
		return entity.KindAltar, true
	}
	if x == c+2 && y == c {
		return entity.KindShop, true
	}
	seed := tileSeed(x, y)
	switch band(x-c, y-c, extent) {
	case 0:
		return "", false
	case 1:
		if seed%9 == 0 {
			return entity.KindBerryBush, true
		}
	case 2:
		if seed%7 == 0 {
			return entity.KindKekWoodTree, true
		}
		if seed%13 == 0 {
			return entity.KindFomoBerryBush, true
		}
	default:
		if seed%31 == 0 {
			return entity.KindLickVoid, true
		}
		if seed%6 == 0 {
			return entity.KindAlphaSlateBoulders, true
		}
	}
	return "", false
}

func band(dx, dy, extent int) int {
	d := int(math.Abs(float64(dx)) + math.Abs(float64(dy)))
	switch {
	case d <= extent/8:
		return 0
	case d <= extent/4:
		return 1
	case d <= extent/2:
		return 2
	default:
		return 3
	}
}

func tileSeed(x, y int) int {
	v := x*73856093 ^ y*19349663
	if v < 0 {
		v = -v
	}
	return v
}

// staticStats is the data of health-tracked statics, which never take damage
// in the simulation.
var staticStats = []byte(`{"stats":{"pulse":50,"maxpulse":50}}`)

var actions = []string{"roam", "forage", "rest"}

// Step advances every zone once and wakes its subscribers.
func (p *Provider) Step() {
	p.mu.Lock()
	for _, z := range p.zones {
		for _, m := range z.movers {
			p.move(z, m)
		}
		z.version++
	}
	subs := make([]chan struct{}, 0)
	for _, set := range p.subs {
		for ch := range set {
			subs = append(subs, ch)
		}
	}
	p.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (p *Provider) move(z *zoneSim, m *mover) {
	m.action = actions[z.rng.IntN(len(actions))]
	if m.action == "rest" {
		m.pulse = min(m.maxPulse, m.pulse+5)
		return
	}
	steps := 1 + z.rng.IntN(p.cfg.MaxStep)
	for i := 0; i < steps; i++ {
		dirs := []world.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}
		z.rng.Shuffle(len(dirs), func(a, b int) { dirs[a], dirs[b] = dirs[b], dirs[a] })
		for _, d := range dirs {
			next := m.tile.Add(d.X, d.Y)
			if !p.inside(z, next) || z.blocked[next] {
				continue
			}
			m.dir = world.DirectionBetween(m.tile, next)
			m.tile = next
			break
		}
	}
	m.pulse = max(1, m.pulse-1)
}

func (p *Provider) inside(z *zoneSim, t world.Point) bool {
	return t.X >= z.origin.X && t.Y >= z.origin.Y && t.X < z.origin.X+p.cfg.Extent && t.Y < z.origin.Y+p.cfg.Extent
}

// Run steps the world on interval until ctx is done.
func (p *Provider) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Step()
		}
	}
}

// Version increases every step; cached encodings are keyed by it.
func (p *Provider) Version(zone world.ZoneID) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	z, ok := p.zones[zone]
	if !ok {
		return 0, ports.ErrNotFound
	}
	return z.version, nil
}

// SnapshotForZone returns every entity of the zone ordered by id.
func (p *Provider) SnapshotForZone(_ context.Context, zone world.ZoneID) ([]world.EntitySnapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	z, ok := p.zones[zone]
	if !ok {
		return nil, ports.ErrNotFound
	}
	out := make([]world.EntitySnapshot, 0, len(z.statics)+len(z.movers))
	out = append(out, z.statics...)
	for _, m := range z.movers {
		data, err := moverData(m)
		if err != nil {
			return nil, err
		}
		out = append(out, world.EntitySnapshot{
			ID:     m.id,
			ZoneID: zone,
			Type:   string(m.kind),
			TileX:  m.tile.X,
			TileY:  m.tile.Y,
			Data:   data,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func moverData(m *mover) ([]byte, error) {
	return sonic.Marshal(map[string]any{
		"direction": m.dir,
		"stats":     map[string]int{"pulse": m.pulse, "maxpulse": m.maxPulse},
		"actionPlan": map[string]any{
			"currentAction": map[string]string{"type": m.action},
		},
	})
}

// Subscribe returns a channel signalled after each step of zone.
func (p *Provider) Subscribe(zone world.ZoneID) (<-chan struct{}, func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.zones[zone]; !ok {
		return nil, nil, ports.ErrNotFound
	}
	ch := make(chan struct{}, 1)
	if p.subs[zone] == nil {
		p.subs[zone] = map[chan struct{}]struct{}{}
	}
	p.subs[zone][ch] = struct{}{}
	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs[zone], ch)
	}
	return ch, cancel, nil
}
