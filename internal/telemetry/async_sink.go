package telemetry

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// DefaultQueueSize is the queue capacity used when none is configured.
const DefaultQueueSize = 64

const (
	logMessageTelemetryDroppedConstant     = "telemetry event dropped"
	logMessageTelemetryDeliveryConstant    = "telemetry delivery failed"
	logFieldDroppedEventNameConstant       = "event_name"
	logFieldDroppedEventIdentifierConstant = "event_id"
)

// AsyncSink queues events and delivers them to a delegate on a background goroutine.
// Send never blocks; a full queue drops the event.
type AsyncSink struct {
	delegate Sink
	logger   *zap.Logger
	queue    chan Event

	mutex    sync.RWMutex
	closed   bool
	drained  chan struct{}
	closeRun sync.Once
}

// NewAsyncSink starts the delivery goroutine. A non-positive queueSize uses the default of 64.
func NewAsyncSink(delegate Sink, logger *zap.Logger, queueSize int) (*AsyncSink, error) {
	if delegate == nil {
		return nil, ErrSinkNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	asyncSink := &AsyncSink{
		delegate: delegate,
		logger:   logger,
		queue:    make(chan Event, queueSize),
		drained:  make(chan struct{}),
	}
	go asyncSink.drain()
	return asyncSink, nil
}

// Send enqueues the event.
func (asyncSink *AsyncSink) Send(_ context.Context, event Event) error {
	asyncSink.mutex.RLock()
	defer asyncSink.mutex.RUnlock()

	if asyncSink.closed {
		return ErrSinkClosed
	}

	select {
	case asyncSink.queue <- event:
		return nil
	default:
		asyncSink.logger.Warn(
			logMessageTelemetryDroppedConstant,
			zap.String(logFieldDroppedEventNameConstant, event.Name),
			zap.String(logFieldDroppedEventIdentifierConstant, event.Identifier),
		)
		return ErrQueueFull
	}
}

// Close stops accepting events and waits until queued events are delivered or the context ends.
func (asyncSink *AsyncSink) Close(closeContext context.Context) error {
	if closeContext == nil {
		closeContext = context.Background()
	}
	asyncSink.closeRun.Do(func() {
		asyncSink.mutex.Lock()
		asyncSink.closed = true
		close(asyncSink.queue)
		asyncSink.mutex.Unlock()
	})

	select {
	case <-asyncSink.drained:
		return nil
	case <-closeContext.Done():
		return closeContext.Err()
	}
}

func (asyncSink *AsyncSink) drain() {
	defer close(asyncSink.drained)
	for event := range asyncSink.queue {
		if deliveryError := asyncSink.delegate.Send(context.Background(), event); deliveryError != nil {
			asyncSink.logger.Debug(
				logMessageTelemetryDeliveryConstant,
				zap.String(logFieldDroppedEventNameConstant, event.Name),
				zap.Error(deliveryError),
			)
		}
	}
}
