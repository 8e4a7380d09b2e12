package workspace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
	"github.com/hackgods/clinic-frontdesk/internal/audit"
	redisclient "github.com/hackgods/clinic-frontdesk/internal/redis"
	"github.com/hackgods/clinic-frontdesk/internal/store"
)

// RegisterArrival checks a patient in. A nil appointment with a nil error
// means the record is not resident in any open view and nothing was sent.
func (c *Coordinator) RegisterArrival(ctx context.Context, id int64) (*appointment.Appointment, error) {
	cur, ok := c.resident(id, "register arrival")
	if !ok {
		return nil, nil
	}

	next, err := appointment.RegisterArrival(cur)
	if err != nil {
		return nil, err
	}

	return c.update(ctx, cur, next, appointment.Patch{Status: &next.Status}, audit.EventAppointmentArrived, map[string]any{
		"from": string(cur.Status),
		"to":   string(next.Status),
	})
}

// TransitionStatus moves an appointment along the lifecycle. When overrides
// are enabled an out-of-order status is still accepted, logged and audited
// as an override.
func (c *Coordinator) TransitionStatus(ctx context.Context, id int64, to appointment.Status) (*appointment.Appointment, error) {
	cur, ok := c.resident(id, "transition status")
	if !ok {
		return nil, nil
	}

	next, event, err := c.nextStatus(cur, to)
	if err != nil {
		return nil, err
	}

	return c.update(ctx, cur, next, appointment.Patch{Status: &next.Status}, event, map[string]any{
		"from": string(cur.Status),
		"to":   string(next.Status),
	})
}

// EditAppointment applies the edit form. A status in the patch goes through
// the same checks as TransitionStatus.
func (c *Coordinator) EditAppointment(ctx context.Context, id int64, p appointment.Patch) (*appointment.Appointment, error) {
	cur, ok := c.resident(id, "edit")
	if !ok {
		return nil, nil
	}
	if p.Empty() {
		return &cur, nil
	}

	event := audit.EventAppointmentEdited
	next := p.Apply(cur)
	if p.Status != nil && *p.Status != cur.Status {
		var statusEvent string
		var err error
		next.Status = cur.Status
		next, statusEvent, err = c.nextStatus(next, *p.Status)
		if err != nil {
			return nil, err
		}
		if statusEvent == audit.EventAppointmentOverride {
			event = statusEvent
		}
	}

	return c.update(ctx, cur, next, p, event, editPayload(p))
}

// DeleteAppointment removes an appointment from the store and, once the store
// confirms, from every resident view. confirmed is the operator's explicit yes.
func (c *Coordinator) DeleteAppointment(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	cur, ok := c.resident(id, "delete")
	if !ok {
		return nil
	}

	err := c.withLock(ctx, id, func(ctx context.Context) error {
		return c.store.DeleteAppointment(ctx, id)
	})
	if err != nil {
		c.mutationFailed(err, id, "delete")
		return err
	}

	c.removeConfirmed(id)
	c.record(ctx, audit.EventAppointmentDeleted, id, map[string]any{
		"patient_id":   cur.PatientID,
		"scheduled_at": cur.ScheduledAt,
	})
	return nil
}

// CreateAppointment validates the form and creates the appointment. Nothing
// is appended locally; views pick it up on their next load.
func (c *Coordinator) CreateAppointment(ctx context.Context, d appointment.Draft) (appointment.Appointment, error) {
	a, err := ValidateDraft(d, c.loc)
	if err != nil {
		return appointment.Appointment{}, err
	}

	c.mu.Lock()
	if c.creating {
		c.mu.Unlock()
		return appointment.Appointment{}, ErrMutationInFlight
	}
	c.creating = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.creating = false
		c.mu.Unlock()
	}()

	created, err := c.store.CreateAppointment(ctx, a)
	if err != nil {
		c.mutationFailed(err, 0, "create")
		return appointment.Appointment{}, err
	}

	c.record(ctx, audit.EventAppointmentCreated, created.ID, map[string]any{
		"patient_id":   created.PatientID,
		"scheduled_at": created.ScheduledAt,
		"service":      created.Service,
	})
	return created, nil
}

func (c *Coordinator) nextStatus(cur appointment.Appointment, to appointment.Status) (appointment.Appointment, string, error) {
	next, err := appointment.Transition(cur, to)
	if err == nil {
		return next, audit.EventAppointmentStatus, nil
	}
	if !c.override || !errors.Is(err, appointment.ErrInvalidStatusTransition) {
		return cur, "", err
	}

	next, err = appointment.SetStatus(cur, to)
	if err != nil {
		return cur, "", err
	}
	c.log.Warn().
		Int64("appointment_id", cur.ID).
		Str("from", string(cur.Status)).
		Str("to", string(to)).
		Msg("status override outside lifecycle")
	return next, audit.EventAppointmentOverride, nil
}

func (c *Coordinator) update(ctx context.Context, cur, expected appointment.Appointment, p appointment.Patch, event string, payload map[string]any) (*appointment.Appointment, error) {
	var stored appointment.Appointment
	err := c.withLock(ctx, cur.ID, func(ctx context.Context) error {
		var err error
		stored, err = c.store.UpdateAppointment(ctx, cur.ID, p)
		return err
	})
	if err != nil {
		c.mutationFailed(err, cur.ID, event)
		return nil, err
	}

	confirmed := reconcile(expected, stored)
	c.applyConfirmed(confirmed)
	c.record(ctx, event, cur.ID, payload)
	return &confirmed, nil
}

// reconcile prefers the store's copy but keeps display fields it left out.
func reconcile(expected, stored appointment.Appointment) appointment.Appointment {
	if stored.ID == 0 {
		return expected
	}
	if stored.PatientName == "" {
		stored.PatientName = expected.PatientName
	}
	return stored
}

func (c *Coordinator) withLock(ctx context.Context, id int64, fn func(ctx context.Context) error) error {
	err := c.locker.WithAppointmentLock(ctx, id, fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return fmt.Errorf("%w: %w", ErrMutationInFlight, err)
	}
	return err
}

func (c *Coordinator) resident(id int64, op string) (appointment.Appointment, bool) {
	a, ok := c.lookup(id)
	if !ok {
		c.log.Warn().Int64("appointment_id", id).Str("op", op).Msg("appointment not resident in any open view")
	}
	return a, ok
}

func (c *Coordinator) mutationFailed(err error, id int64, op string) {
	ev := c.log.Error().Err(err).Int64("appointment_id", id).Str("op", op)
	var se *store.Error
	if errors.As(err, &se) {
		ev = ev.Str("kind", string(se.Kind)).Int("status", se.StatusCode)
	}
	ev.Msg("mutation did not take effect")
}

// record is best effort; an audit failure never undoes a confirmed mutation.
func (c *Coordinator) record(ctx context.Context, event string, id int64, payload map[string]any) {
	err := c.recorder.Record(context.WithoutCancel(ctx), audit.Event{
		Type:          event,
		AppointmentID: id,
		ActorID:       c.actorID,
		Payload:       payload,
		CreatedAt:     c.now(),
	})
	if err != nil {
		c.log.Warn().Err(err).Int64("appointment_id", id).Str("event", event).Msg("audit record failed")
	}
}

func editPayload(p appointment.Patch) map[string]any {
	out := make(map[string]any)
	if p.ScheduledAt != nil {
		out["scheduled_at"] = p.ScheduledAt.Format(time.RFC3339)
	}
	if p.Service != nil {
		out["service"] = *p.Service
	}
	if p.AssignedStaff != nil {
		out["assigned_staff"] = *p.AssignedStaff
	}
	if p.Status != nil {
		out["status"] = string(*p.Status)
	}
	if p.Notes != nil {
		out["notes"] = *p.Notes
	}
	return out
}
