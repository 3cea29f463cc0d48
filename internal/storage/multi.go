package storage

import (
	"context"

	"golang.org/x/sync/errgroup"

	"hodor/internal/model"
)

// MultiSink writes every batch to all of its sinks concurrently. It fails
// if any sink fails.
type MultiSink []EventSink

func (m MultiSink) PutEvents(ctx context.Context, events []model.PoolEvent) error {
	if len(events) == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, sink := range m {
		if sink == nil {
			continue
		}
		g.Go(func() error {
			return sink.PutEvents(ctx, events)
		})
	}
	return g.Wait()
}
