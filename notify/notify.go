// Package notify fans media events out to subscribers such as the log and websocket clients.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/indieinfra/hydrogen/metrics"
	"github.com/indieinfra/hydrogen/storage/media"
)

const EventMediaFileUpdated = "media.file.updated"

type Event struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	Record     *media.Record `json:"record"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Notifier is what the reconciliation job reports resolved records to.
type Notifier interface {
	MediaFileUpdated(ctx context.Context, rec *media.Record)
}

type Subscriber interface {
	Handle(ctx context.Context, ev Event) error
}

type SubscriberFunc func(ctx context.Context, ev Event) error

func (f SubscriberFunc) Handle(ctx context.Context, ev Event) error { return f(ctx, ev) }

type subscription struct {
	name string
	sub  Subscriber
}

// Dispatcher delivers each event to every subscriber in subscription order.
// Subscriber errors and panics are logged and never returned to the publisher.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   []subscription
	logger zerolog.Logger
	now    func() time.Time
}

var _ Notifier = (*Dispatcher)(nil)

func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger.With().Str("component", "notify").Logger(),
		now:    time.Now,
	}
}

func (d *Dispatcher) Subscribe(name string, sub Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, subscription{name: name, sub: sub})
}

func (d *Dispatcher) MediaFileUpdated(ctx context.Context, rec *media.Record) {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       EventMediaFileUpdated,
		OccurredAt: d.now().UTC(),
	}
	if rec != nil {
		ev.Record = rec.Clone()
	}
	d.Publish(ctx, ev)
}

func (d *Dispatcher) Publish(ctx context.Context, ev Event) {
	d.mu.RLock()
	subs := make([]subscription, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	for _, s := range subs {
		if err := deliver(ctx, s.sub, ev); err != nil {
			metrics.NotificationsTotal.WithLabelValues(s.name, "error").Inc()
			d.logger.Warn().Err(err).Str("subscriber", s.name).Str("event", ev.Type).Msg("notification delivery failed")
			continue
		}
		metrics.NotificationsTotal.WithLabelValues(s.name, "ok").Inc()
	}
}

func deliver(ctx context.Context, sub Subscriber, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return sub.Handle(ctx, ev)
}

// LogSubscriber records every event on the given logger.
type LogSubscriber struct {
	Logger zerolog.Logger
}

func (l LogSubscriber) Handle(_ context.Context, ev Event) error {
	e := l.Logger.Info().Str("event_id", ev.ID).Str("event", ev.Type)
	if ev.Record != nil {
		e = e.Int64("media_id", ev.Record.ID).Str("filename", ev.Record.Filename)
		if ev.Record.ExternalURL != nil {
			e = e.Str("url", *ev.Record.ExternalURL)
		}
	}
	e.Msg("media file updated")
	return nil
}
