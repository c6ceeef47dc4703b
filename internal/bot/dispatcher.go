package bot

import (
	"context"

	"github.com/trixlive/backend/pkg/xcontext"
	"golang.org/x/sync/errgroup"
)

const queueSize = 64

// Handler processes one event.
type Handler interface {
	Handle(ctx context.Context, ev Event)
}

// Dispatcher fans events out to a fixed number of workers. Events of the
// same chat always go to the same worker, so they are handled in order.
type Dispatcher struct {
	handler Handler
	workers int
}

func NewDispatcher(handler Handler, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}

	return &Dispatcher{handler: handler, workers: workers}
}

// Run blocks until events is closed or ctx is done. Queued events are
// drained before it returns.
func (d *Dispatcher) Run(ctx context.Context, events <-chan Event) error {
	eg := errgroup.Group{}

	queues := make([]chan Event, d.workers)
	for i := range queues {
		queue := make(chan Event, queueSize)
		queues[i] = queue

		eg.Go(func() error {
			for ev := range queue {
				d.handle(ctx, ev)
			}

			return nil
		})
	}

	eg.Go(func() error {
		defer func() {
			for _, queue := range queues {
				close(queue)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}

				queues[shard(ev.ChatID, d.workers)] <- ev
			}
		}
	})

	return eg.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			xcontext.Logger(ctx).Errorf("Panic while handling %s event of chat %d: %v", ev.Kind, ev.ChatID, r)
		}
	}()

	d.handler.Handle(ctx, ev)
}

func shard(chatID int64, n int) int {
	if chatID < 0 {
		chatID = -chatID
	}

	return int(chatID % int64(n))
}
