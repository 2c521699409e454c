package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/audioclean-service/internal/events"
)

const forwardTimeout = 500 * time.Millisecond

// EventForwarder ships events out of process.
type EventForwarder interface {
	Forward(ctx context.Context, event events.Event) error
}

// ActivityService records domain events: every event is logged, and when a
// forwarder is configured it is also pushed to the event stream. Forwarding
// runs off the request path; Wait blocks until pending forwards finish.
type ActivityService struct {
	dispatcher events.Dispatcher
	forwarder  EventForwarder
	logger     *zap.Logger
	pending    sync.WaitGroup
}

// NewActivityService creates the service. forwarder may be nil.
func NewActivityService(dispatcher events.Dispatcher, forwarder EventForwarder, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		dispatcher: dispatcher,
		forwarder:  forwarder,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *ActivityService) handle(ctx context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Int64("user_id", event.UserID),
		zap.Any("payload", event.Payload))

	if a.forwarder == nil {
		return nil
	}
	fwdCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), forwardTimeout)
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		defer cancel()
		if err := a.forwarder.Forward(fwdCtx, event); err != nil {
			a.logger.Warn("forward event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every forward started so far has completed or timed out.
func (a *ActivityService) Wait() {
	a.pending.Wait()
}
