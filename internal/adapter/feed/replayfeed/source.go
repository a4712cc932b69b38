package replayfeed

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hako/durafmt"
	"github.com/sirupsen/logrus"

	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

// Source replays a recorded session at its recorded pace, scaled by Speed.
// Batches keep their recorded sequence numbers.
type Source struct {
	Journal   ports.BatchJournal
	SessionID string
	Zones     []world.ZoneID
	Speed     float64
	Log       logrus.FieldLogger

	wait func(ctx context.Context, d time.Duration) error
}

func (s Source) Run(ctx context.Context, out chan<- world.Batch) error {
	entries, err := s.Journal.ListBySession(ctx, s.SessionID, ports.AllZones, 0)
	if err != nil {
		return fmt.Errorf("load session %s: %w", s.SessionID, err)
	}
	entries = s.filter(entries)
	log := s.logger().WithField("session", s.SessionID)
	if len(entries) == 0 {
		log.Warn("nothing to replay")
		return nil
	}
	speed := s.Speed
	if speed <= 0 {
		speed = 1
	}
	wait := s.wait
	if wait == nil {
		wait = sleep
	}
	span := entries[len(entries)-1].RecordedAt.Sub(entries[0].RecordedAt)
	log.WithFields(logrus.Fields{
		"batches": len(entries),
		"span":    durafmt.Parse(span).LimitFirstN(2).String(),
		"speed":   speed,
	}).Info("replaying session")

	prev := entries[0].RecordedAt
	for _, e := range entries {
		gap := time.Duration(float64(e.RecordedAt.Sub(prev)) / speed)
		prev = e.RecordedAt
		if gap > 0 {
			if err := wait(ctx, gap); err != nil {
				return nil
			}
		}
		select {
		case out <- e.Batch:
		case <-ctx.Done():
			return nil
		}
	}
	log.Info("replay finished")
	return nil
}

func (s Source) filter(entries []ports.JournalEntry) []ports.JournalEntry {
	if len(s.Zones) == 0 {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		if slices.Contains(s.Zones, e.Batch.ZoneID) {
			out = append(out, e)
		}
	}
	return out
}

func (s Source) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
