package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is one structured telemetry record.
type Event struct {
	Identifier   string
	Name         string
	Timestamp    time.Time
	Properties   map[string]string
	Measurements map[string]float64
}

// NewEvent constructs an event with a fresh identifier and empty property maps.
func NewEvent(name string, timestamp time.Time) Event {
	return Event{
		Identifier:   uuid.NewString(),
		Name:         name,
		Timestamp:    timestamp.UTC(),
		Properties:   map[string]string{},
		Measurements: map[string]float64{},
	}
}

// Sink accepts telemetry events. Callers treat delivery failures as non-fatal.
type Sink interface {
	Send(sendContext context.Context, event Event) error
}
