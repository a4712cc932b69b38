package replay

import (
	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

type Request struct {
	SessionID    string
	ZoneID       world.ZoneID
	Limit        int
	RecordedFrom int64
	RecordedTo   int64
}

type Response struct {
	Entries []ports.JournalEntry
	LiveIDs []string
	LastSeq uint64
	Span    string
}
