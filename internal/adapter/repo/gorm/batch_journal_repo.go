package gormrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/slickgotchi/thereaalm/internal/adapter/repo/gorm/model"
	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

// BatchJournal records applied batches per viewer session. Each append
// upserts the session row and inserts the batch in one transaction.
type BatchJournal struct {
	db  *gorm.DB
	tx  TxManager
	now func() time.Time
}

func NewBatchJournal(db *gorm.DB) BatchJournal {
	return BatchJournal{db: db, tx: NewTxManager(db), now: time.Now}
}

func (r BatchJournal) Append(ctx context.Context, sessionID string, batch world.Batch) error {
	payload, err := sonic.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	now := r.now().UTC()
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		db := conn(ctx, r.db)
		session := model.JournalSession{SessionID: sessionID, StartedAt: now, LastSeenAt: now, Batches: 1}
		err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"last_seen_at": now,
				"batches":      gorm.Expr("journal_sessions.batches + 1"),
			}),
		}).Create(&session).Error
		if err != nil {
			return fmt.Errorf("upsert journal session: %w", err)
		}
		row := model.ZoneBatch{
			SessionID:   sessionID,
			ZoneID:      int32(batch.ZoneID),
			Seq:         int64(batch.Seq),
			FetchedAt:   batch.FetchedAt,
			RecordedAt:  now,
			EntityCount: int32(len(batch.Snapshots)),
			Payload:     payload,
		}
		if err := db.Create(&row).Error; err != nil {
			return fmt.Errorf("insert zone batch: %w", err)
		}
		return nil
	})
}

func (r BatchJournal) ListBySession(ctx context.Context, sessionID string, zone world.ZoneID, limit int) ([]ports.JournalEntry, error) {
	rows := []model.ZoneBatch{}
	query := conn(ctx, r.db).
		Where(&model.ZoneBatch{SessionID: sessionID}).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "id"}}},
		})
	if zone != ports.AllZones {
		query = query.Where("zone_id = ?", int32(zone))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ports.ErrNotFound
	}

	out := make([]ports.JournalEntry, 0, len(rows))
	for _, row := range rows {
		var b world.Batch
		if err := sonic.Unmarshal(row.Payload, &b); err != nil {
			return nil, fmt.Errorf("decode zone batch %d: %w", row.ID, err)
		}
		out = append(out, ports.JournalEntry{SessionID: row.SessionID, Batch: b, RecordedAt: row.RecordedAt})
	}
	return out, nil
}

func (r BatchJournal) Sessions(ctx context.Context, limit int) ([]ports.JournalSession, error) {
	rows := []model.JournalSession{}
	query := conn(ctx, r.db).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "last_seen_at"}, Desc: true}},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.JournalSession, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.JournalSession{
			SessionID:  row.SessionID,
			StartedAt:  row.StartedAt,
			LastSeenAt: row.LastSeenAt,
			Batches:    row.Batches,
		})
	}
	return out, nil
}
