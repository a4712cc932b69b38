package model

import "time"

const (
	TableNameJournalSession = "journal_sessions"
	TableNameZoneBatch      = "zone_batches"
)

type JournalSession struct {
	SessionID  string    `gorm:"column:session_id;primaryKey" json:"session_id"`
	StartedAt  time.Time `gorm:"column:started_at;not null" json:"started_at"`
	LastSeenAt time.Time `gorm:"column:last_seen_at;not null" json:"last_seen_at"`
	Batches    int64     `gorm:"column:batches;not null" json:"batches"`
}

func (*JournalSession) TableName() string {
	return TableNameJournalSession
}

type ZoneBatch struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	SessionID   string    `gorm:"column:session_id;not null" json:"session_id"`
	ZoneID      int32     `gorm:"column:zone_id;not null" json:"zone_id"`
	Seq         int64     `gorm:"column:seq;not null" json:"seq"`
	FetchedAt   time.Time `gorm:"column:fetched_at;not null" json:"fetched_at"`
	RecordedAt  time.Time `gorm:"column:recorded_at;not null" json:"recorded_at"`
	EntityCount int32     `gorm:"column:entity_count;not null" json:"entity_count"`
	Payload     []byte    `gorm:"column:payload;type:jsonb;not null" json:"payload"`
}

func (*ZoneBatch) TableName() string {
	return TableNameZoneBatch
}
