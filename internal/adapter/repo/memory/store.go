package memory

import (
	"context"
	"sync"

	"github.com/slickgotchi/thereaalm/internal/app/ports"
)

// Store is the process-local journal used when no database is configured.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]ports.JournalSession
	batches  map[string][]ports.JournalEntry
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]ports.JournalSession),
		batches:  make(map[string][]ports.JournalEntry),
	}
}

// TxManager serializes writers on the store lock.
type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) TxManager {
	return TxManager{store: store}
}

func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return fn(ctx)
}
