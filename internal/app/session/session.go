package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/slickgotchi/thereaalm/internal/app/selection"
	"github.com/slickgotchi/thereaalm/internal/app/zonesync"
	"github.com/slickgotchi/thereaalm/internal/domain/entity"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

// Session drives the core from the render goroutine. Sources only write to
// the batch channel; Step drains it, applies, ticks and publishes frames for
// readers on other goroutines.
type Session struct {
	uc        zonesync.UseCase
	selection *selection.Disambiguator
	in        <-chan world.Batch
	log       logrus.FieldLogger

	mu       sync.RWMutex
	frames   []entity.Frame
	selected *selection.Selected
	results  map[world.ZoneID]zonesync.Result
	steps    uint64
}

func New(uc zonesync.UseCase, sel *selection.Disambiguator, in <-chan world.Batch, log logrus.FieldLogger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Session{
		uc:        uc,
		selection: sel,
		in:        in,
		log:       log,
		results:   map[world.ZoneID]zonesync.Result{},
	}
	if sel != nil {
		sel.Subscribe(s.onSelection)
		if uc.Registry != nil {
			uc.Registry.OnDestroy(sel.EntityDestroyed)
		}
	}
	return s
}

func (s *Session) Registry() *zonesync.Registry { return s.uc.Registry }

func (s *Session) Selection() *selection.Disambiguator { return s.selection }

// Step applies every pending batch, then advances presentation by dt.
func (s *Session) Step(ctx context.Context, dt time.Duration) {
	s.drain(ctx)
	s.uc.Registry.Tick(dt)
	frames := s.uc.Registry.Frames()

	s.mu.Lock()
	s.frames = frames
	s.steps++
	s.mu.Unlock()
}

func (s *Session) drain(ctx context.Context) {
	for s.in != nil {
		select {
		case b, ok := <-s.in:
			if !ok {
				s.in = nil
				return
			}
			resp, err := s.uc.Execute(ctx, zonesync.Request{Batch: b})
			if err != nil {
				s.log.WithError(err).WithField("zone", b.ZoneID).Warn("batch rejected")
				continue
			}
			s.mu.Lock()
			s.results[b.ZoneID] = resp.Result
			s.mu.Unlock()
		default:
			return
		}
	}
}

// Frames returns the frames published by the last Step.
func (s *Session) Frames() []entity.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

func (s *Session) FramesAny() any { return s.Frames() }

func (s *Session) Selected() *selection.Selected {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func (s *Session) SelectedAny() any { return s.Selected() }

type Status struct {
	Steps    uint64                            `json:"steps"`
	Entities int                               `json:"entities"`
	Zones    map[world.ZoneID]zonesync.Result `json:"zones"`
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Status{Steps: s.steps, Entities: len(s.frames), Zones: make(map[world.ZoneID]zonesync.Result, len(s.results))}
	for k, v := range s.results {
		out.Zones[k] = v
	}
	return out
}

// Close tears down every live entity.
func (s *Session) Close() {
	s.uc.Registry.Teardown()
	s.mu.Lock()
	s.frames = nil
	s.mu.Unlock()
}

func (s *Session) onSelection(sel *selection.Selected) {
	s.mu.Lock()
	s.selected = sel
	s.mu.Unlock()
}
