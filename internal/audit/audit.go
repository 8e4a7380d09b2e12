// Package audit records confirmed appointment mutations.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventAppointmentCreated  = "APPOINTMENT_CREATED"
	EventAppointmentArrived  = "APPOINTMENT_ARRIVED"
	EventAppointmentStatus   = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentEdited   = "APPOINTMENT_EDITED"
	EventAppointmentDeleted  = "APPOINTMENT_DELETED"
	EventAppointmentOverride = "STATUS_OVERRIDDEN"
)

type Event struct {
	Type          string
	AppointmentID int64
	ActorID       int64
	Payload       map[string]any
	CreatedAt     time.Time
}

type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// LogRecorder writes events to the structured log only.
type LogRecorder struct {
	log zerolog.Logger
}

func NewLogRecorder(log zerolog.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

func (r *LogRecorder) Record(_ context.Context, ev Event) error {
	r.log.Info().
		Str("event", ev.Type).
		Int64("appointment_id", ev.AppointmentID).
		Int64("actor_id", ev.ActorID).
		Fields(ev.Payload).
		Time("at", ev.CreatedAt).
		Msg("audit")
	return nil
}

func marshalPayload(p map[string]any) ([]byte, error) {
	if len(p) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}
