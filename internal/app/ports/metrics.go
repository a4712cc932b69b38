package ports

import "github.com/slickgotchi/thereaalm/internal/domain/world"

type SyncMetrics interface {
	RecordApplied(zone world.ZoneID, created, updated, removed int)
	RecordStale(zone world.ZoneID)
	RecordRejected()
	RecordTeleports(n int)
}
