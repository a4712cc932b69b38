package ports

import (
	"context"

	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

// SnapshotSource delivers batches until ctx is done. Implementations run on
// their own goroutine and never touch the registry directly.
type SnapshotSource interface {
	Run(ctx context.Context, out chan<- world.Batch) error
}
