package storage

import (
	"context"

	"hodor/internal/model"
)

// EventSink defines a sink for pool events.
type EventSink interface {
	PutEvents(ctx context.Context, events []model.PoolEvent) error
}
