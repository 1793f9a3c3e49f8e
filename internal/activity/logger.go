// Package activity ships audit records of core operations to external sinks
// without ever blocking or failing the operation that produced them.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/metinatakli/cinema-ticketing/internal/domain"
)

const (
	DefaultBufferSize   = 1024
	defaultWriteTimeout = 5 * time.Second
)

// Sink persists or forwards a single activity.
type Sink interface {
	Name() string
	Write(ctx context.Context, activity domain.Activity) error
}

// AsyncLogger queues activities and writes them to every sink from a single
// background worker. When the queue is full the activity is dropped.
type AsyncLogger struct {
	logger       *slog.Logger
	sinks        []Sink
	queue        chan domain.Activity
	done         chan struct{}
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

func NewAsyncLogger(logger *slog.Logger, bufferSize int, sinks ...Sink) *AsyncLogger {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	l := &AsyncLogger{
		logger:       logger,
		sinks:        sinks,
		queue:        make(chan domain.Activity, bufferSize),
		done:         make(chan struct{}),
		writeTimeout: defaultWriteTimeout,
	}

	go l.run()

	return l
}

func (l *AsyncLogger) Log(ctx context.Context, activity domain.Activity) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return
	}

	select {
	case l.queue <- activity:
	default:
		l.logger.Warn("activity queue full, dropping activity", "activity_type", activity.Type)
	}
}

// Close stops accepting activities and waits for the queued ones to be
// written or for ctx to end.
func (l *AsyncLogger) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *AsyncLogger) run() {
	defer close(l.done)

	for activity := range l.queue {
		for _, sink := range l.sinks {
			l.write(sink, activity)
		}
	}
}

func (l *AsyncLogger) write(sink Sink, activity domain.Activity) {
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("activity sink panicked", "sink", sink.Name(), "error", fmt.Errorf("%s", err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), l.writeTimeout)
	defer cancel()

	err := sink.Write(ctx, activity)
	if err != nil {
		l.logger.Error("failed to write activity",
			"sink", sink.Name(),
			"activity_type", activity.Type,
			"error", err,
		)
	}
}
