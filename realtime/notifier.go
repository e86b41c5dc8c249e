package realtime

import (
	"context"
	"errors"
	"time"
)

const EventNewTransaction = "new-transaction"

// Event is pushed to the desktop UI when a remote client changed data.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

func NewEvent(eventType string, data any) Event {
	return Event{Type: eventType, Data: data, At: time.Now().UTC()}
}

// Notifier delivers events out of band of the HTTP response.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Notifiers fans an event out to every notifier and joins their errors.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, notifier := range n {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event) error

func (f NotifierFunc) Notify(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
