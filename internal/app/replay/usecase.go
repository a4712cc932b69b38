package replay

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/hako/durafmt"

	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/app/zonesync"
)

var ErrInvalidRequest = errors.New("invalid replay request")

// UseCase rebuilds the live id set a zone had at the end of a recorded
// session, applying the same stale-batch rule as the live registry.
type UseCase struct {
	Journal ports.BatchJournal
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.SessionID) == "" || req.ZoneID < 0 {
		return Response{}, ErrInvalidRequest
	}
	entries, err := u.Journal.ListBySession(ctx, req.SessionID, req.ZoneID, 0)
	if err != nil {
		return Response{}, err
	}
	entries = filterByTimeWindow(entries, req.RecordedFrom, req.RecordedTo)
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[len(entries)-req.Limit:]
	}
	live, lastSeq := reconstruct(entries)
	return Response{
		Entries: entries,
		LiveIDs: live,
		LastSeq: lastSeq,
		Span:    span(entries),
	}, nil
}

func filterByTimeWindow(entries []ports.JournalEntry, from, to int64) []ports.JournalEntry {
	if from <= 0 && to <= 0 {
		return entries
	}
	out := make([]ports.JournalEntry, 0, len(entries))
	for _, e := range entries {
		ts := e.RecordedAt.Unix()
		if from > 0 && ts < from {
			continue
		}
		if to > 0 && ts > to {
			continue
		}
		out = append(out, e)
	}
	return out
}

func reconstruct(entries []ports.JournalEntry) ([]string, uint64) {
	live := map[string]struct{}{}
	var last uint64
	for _, e := range entries {
		b := e.Batch
		if b.Seq != 0 && b.Seq <= last {
			continue
		}
		if b.Seq != 0 {
			last = b.Seq
		}
		next := make(map[string]struct{}, len(b.Snapshots))
		for _, s := range b.Snapshots {
			if s.Validate() == nil && s.ZoneID == b.ZoneID {
				next[s.ID] = struct{}{}
			}
		}
		d := zonesync.ComputeDiff(live, next)
		for _, id := range d.Remove {
			delete(live, id)
		}
		for _, id := range d.Create {
			live[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(live))
	for id := range live {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, last
}

func span(entries []ports.JournalEntry) string {
	if len(entries) < 2 {
		return "0 seconds"
	}
	d := entries[len(entries)-1].RecordedAt.Sub(entries[0].RecordedAt)
	return durafmt.Parse(d).LimitFirstN(2).String()
}
