package zonesync

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/slickgotchi/thereaalm/internal/app/ports"
	"github.com/slickgotchi/thereaalm/internal/domain/world"
)

var (
	ErrInvalidRequest = errors.New("invalid zone sync request")
	ErrInvalidBatch   = errors.New("invalid batch")
)

type Request struct {
	Batch world.Batch
}

type Response struct {
	Result Result
}

// UseCase applies one batch to the registry, then records it. Journal
// failures are logged and never block presentation.
type UseCase struct {
	Registry  *Registry
	Journal   ports.BatchJournal
	SessionID string
	Metrics   ports.SyncMetrics
	Log       logrus.FieldLogger
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if u.Registry == nil {
		return Response{}, ErrInvalidRequest
	}
	res, err := u.Registry.Apply(req.Batch)
	if err != nil {
		if u.Metrics != nil {
			u.Metrics.RecordRejected()
		}
		return Response{}, fmt.Errorf("zone sync: %w", err)
	}
	if res.Stale {
		if u.Metrics != nil {
			u.Metrics.RecordStale(res.Zone)
		}
		return Response{Result: res}, nil
	}
	if u.Metrics != nil {
		u.Metrics.RecordApplied(res.Zone, len(res.Diff.Create), len(res.Diff.Update), len(res.Diff.Remove))
		if res.Teleports > 0 {
			u.Metrics.RecordTeleports(res.Teleports)
		}
	}
	if u.Journal != nil && u.SessionID != "" {
		if err := u.Journal.Append(ctx, u.SessionID, req.Batch); err != nil {
			u.logger().WithError(err).WithFields(logrus.Fields{
				"zone": res.Zone,
				"seq":  res.Seq,
			}).Warn("journal append failed")
		}
	}
	return Response{Result: res}, nil
}

func (u UseCase) logger() logrus.FieldLogger {
	if u.Log == nil {
		return logrus.StandardLogger()
	}
	return u.Log
}
