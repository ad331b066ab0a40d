// Package notify delivers availability results to recipients over email,
// Telegram and SMS.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	model "github.com/cowin-slot-notifier/src/model"
)

// ErrSinkPanic marks a delivery that panicked.
var ErrSinkPanic = errors.New("sink panicked")

// Kind tells a sink which message to render.
type Kind int

const (
	Success Kind = iota
	Failure
	Test
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Test:
		return "test"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Payload is what a pass hands to the notifiers.
type Payload struct {
	Kind        Kind
	RunID       string
	MinAgeLimit int
	Rows        []model.SessionRow
	Detail      string
	GeneratedAt time.Time
}

// Sink delivers a payload to one recipient over one channel.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, recipient string, p Payload) error
}

// Route pairs a sink with the recipients it should reach.
type Route struct {
	Sink       Sink
	Recipients []string
}

// Dispatcher fans a payload out to every recipient of every route.
type Dispatcher struct {
	routes  []Route
	workers int
}

func NewDispatcher(workers int, routes ...Route) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{routes: routes, workers: workers}
}

// Recipients returns the number of deliveries a Dispatch performs.
func (d *Dispatcher) Recipients() int {
	n := 0
	for _, r := range d.routes {
		n += len(r.Recipients)
	}
	return n
}

// Dispatch delivers p to all recipients and waits for every delivery. Failed
// deliveries do not stop the others; their errors are combined.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) error {
	if d.Recipients() == 0 {
		log.Warn().Str("kind", p.Kind.String()).Msg("no recipients configured, nothing delivered")
		return nil
	}
	if p.GeneratedAt.IsZero() {
		p.GeneratedAt = time.Now()
	}

	start := time.Now()
	var (
		mu   sync.Mutex
		errs error
	)

	wp := workerpool.New(d.workers)
	for _, route := range d.routes {
		for _, recipient := range route.Recipients {
			sink, recipient := route.Sink, recipient
			wp.Submit(func() {
				err := deliver(ctx, sink, recipient, p)
				if err != nil {
					log.Error().Err(err).Str("sink", sink.Name()).Str("recipient", recipient).Msg("delivery failed")
					mu.Lock()
					errs = multierr.Append(errs, fmt.Errorf("%s to %s: %w", sink.Name(), recipient, err))
					mu.Unlock()
					return
				}
				log.Info().Str("sink", sink.Name()).Str("recipient", recipient).Str("kind", p.Kind.String()).Msg("notification delivered")
			})
		}
	}
	wp.StopWait()

	log.Debug().Dur("elapsed", time.Since(start)).Msg("dispatch completed")
	return errs
}

// deliver runs one sink delivery and reports a panic as ErrSinkPanic.
func deliver(ctx context.Context, sink Sink, recipient string, p Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSinkPanic, r)
		}
	}()
	return sink.Deliver(ctx, recipient, p)
}
