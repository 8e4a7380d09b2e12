package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
	"github.com/hackgods/clinic-frontdesk/internal/audit"
)

type fakeStore struct {
	mu           sync.Mutex
	appointments []appointment.Appointment
	today        []appointment.Appointment
	patients     []appointment.Patient
	nextID       int64

	listErr    error
	todayErr   error
	pendingErr error
	patientErr error
	updateErr  error
	deleteErr  error
	createErr  error

	// when set, ListAppointments waits on it after signalling listStarted
	listGate    chan struct{}
	listStarted chan struct{}
	// when set, UpdateAppointment waits on it after signalling updateStarted
	updateGate    chan struct{}
	updateStarted chan struct{}

	updates []appointment.Patch
	deletes []int64
	creates []appointment.Appointment
}

func newFakeStore(items ...appointment.Appointment) *fakeStore {
	return &fakeStore{appointments: items, nextID: 100}
}

func (f *fakeStore) ListAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	if f.listGate != nil {
		f.listStarted <- struct{}{}
		<-f.listGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]appointment.Appointment(nil), f.appointments...), nil
}

func (f *fakeStore) ListToday(ctx context.Context) ([]appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.todayErr != nil {
		return nil, f.todayErr
	}
	return append([]appointment.Appointment(nil), f.today...), nil
}

// ListByStatus ignores the filter, like the real store sometimes does.
func (f *fakeStore) ListByStatus(ctx context.Context, s appointment.Status) ([]appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	return append([]appointment.Appointment(nil), f.appointments...), nil
}

func (f *fakeStore) ListPatients(ctx context.Context) ([]appointment.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patientErr != nil {
		return nil, f.patientErr
	}
	return f.patients, nil
}

func (f *fakeStore) CreateAppointment(ctx context.Context, a appointment.Appointment) (appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, a)
	if f.createErr != nil {
		return appointment.Appointment{}, f.createErr
	}
	f.nextID++
	a.ID = f.nextID
	f.appointments = append(f.appointments, a)
	return a, nil
}

func (f *fakeStore) UpdateAppointment(ctx context.Context, id int64, p appointment.Patch) (appointment.Appointment, error) {
	if f.updateGate != nil {
		f.updateStarted <- struct{}{}
		<-f.updateGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, p)
	if f.updateErr != nil {
		return appointment.Appointment{}, f.updateErr
	}
	for i, a := range f.appointments {
		if a.ID == id {
			f.appointments[i] = p.Apply(a)
			return f.appointments[i], nil
		}
	}
	return appointment.Appointment{}, errors.New("not found")
}

func (f *fakeStore) DeleteAppointment(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, a := range f.appointments {
		if a.ID == id {
			f.appointments = append(f.appointments[:i], f.appointments[i+1:]...)
			break
		}
	}
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (r *fakeRecorder) Record(_ context.Context, ev audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *fakeRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

var (
	clinic = time.FixedZone("COT", -5*60*60)
	now    = time.Date(2026, 3, 10, 12, 0, 0, 0, clinic)
)

func at(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, clinic)
}

func appt(id int64, when time.Time, s appointment.Status) appointment.Appointment {
	return appointment.Appointment{
		ID:          id,
		PatientID:   id + 1000,
		PatientName: "Paciente",
		ScheduledAt: when,
		Service:     "medico general",
		Status:      s,
	}
}

func ids(rows []appointment.Appointment) []int64 {
	out := make([]int64, 0, len(rows))
	for _, a := range rows {
		out = append(out, a.ID)
	}
	return out
}
