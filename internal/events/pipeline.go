package events

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/playrummy/backend/internal/session"
)

const sinkTimeout = 5 * time.Second

// Sink consumes session events off the game path
type Sink interface {
	Name() string
	Write(ctx context.Context, e session.Event) error
}

// Pipeline buffers session events and fans them out to sinks from a
// single worker. Notify never blocks; when the buffer is full the event
// is dropped and counted.
type Pipeline struct {
	events  chan session.Event
	sinks   []Sink
	logger  *zap.Logger
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewPipeline creates a Pipeline buffering up to buffer events
func NewPipeline(buffer int, logger *zap.Logger, sinks ...Sink) *Pipeline {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		events: make(chan session.Event, buffer),
		sinks:  sinks,
		logger: logger,
	}
}

// Notify implements session.Notifier
func (p *Pipeline) Notify(e session.Event) {
	select {
	case p.events <- e:
	default:
		p.dropped.Add(1)
	}
}

// Run delivers events until ctx is done, then flushes what is already
// buffered before returning.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("event pipeline started", zap.Int("sinks", len(p.sinks)))
	for {
		select {
		case <-ctx.Done():
			p.flush()
			p.logger.Info("event pipeline stopping",
				zap.Int64("dropped", p.dropped.Load()),
				zap.Int64("failed", p.failed.Load()))
			return nil
		case e := <-p.events:
			p.deliver(ctx, e)
		}
	}
}

func (p *Pipeline) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	for {
		select {
		case e := <-p.events:
			p.deliver(ctx, e)
		default:
			return
		}
	}
}

func (p *Pipeline) deliver(ctx context.Context, e session.Event) {
	for _, s := range p.sinks {
		sctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		err := s.Write(sctx, e)
		cancel()
		if err != nil {
			p.failed.Add(1)
			p.logger.Warn("sink write failed",
				zap.String("sink", s.Name()),
				zap.Int("seq", e.Seq),
				zap.String("type", e.Type),
				zap.Error(err))
		}
	}
}

// Dropped reports events lost to a full buffer
func (p *Pipeline) Dropped() int64 { return p.dropped.Load() }

// Failed reports sink writes that returned an error
func (p *Pipeline) Failed() int64 { return p.failed.Load() }
