// Package workspace keeps the resident list views of one operator consistent
// with the appointment lifecycle. Every mutation is sent to the record store
// first and applied to resident views only once the store confirms it.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
	"github.com/hackgods/clinic-frontdesk/internal/audit"
	redisclient "github.com/hackgods/clinic-frontdesk/internal/redis"
)

var (
	ErrConfirmationRequired = errors.New("deletion requires explicit confirmation")
	ErrMutationInFlight     = errors.New("another change to this appointment is still being saved")
	ErrViewClosed           = errors.New("view closed")
)

// Store is the slice of the record store the workspace needs.
type Store interface {
	ListAppointments(ctx context.Context) ([]appointment.Appointment, error)
	ListToday(ctx context.Context) ([]appointment.Appointment, error)
	ListByStatus(ctx context.Context, s appointment.Status) ([]appointment.Appointment, error)
	ListPatients(ctx context.Context) ([]appointment.Patient, error)
	CreateAppointment(ctx context.Context, a appointment.Appointment) (appointment.Appointment, error)
	UpdateAppointment(ctx context.Context, id int64, p appointment.Patch) (appointment.Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
}

type Options struct {
	// Location is the clinic time zone. It fixes the calendar day of the
	// today view and the parsing of form timestamps.
	Location *time.Location
	PageSize int
	// AllowOverride lets status changes skip lifecycle validation.
	AllowOverride bool
	Now           func() time.Time
	Locker        redisclient.Locker
	Recorder      audit.Recorder
	Logger        zerolog.Logger
	ActorID       int64
}

// Coordinator owns the resident views of one workspace and routes every
// mutation through the store before touching them.
type Coordinator struct {
	store    Store
	loc      *time.Location
	pageSize int
	override bool
	now      func() time.Time
	locker   redisclient.Locker
	recorder audit.Recorder
	log      zerolog.Logger
	actorID  int64

	mu       sync.Mutex
	views    map[string]*View
	loads    uint64
	creating bool
}

func New(store Store, opts Options) *Coordinator {
	c := &Coordinator{
		store:    store,
		loc:      opts.Location,
		pageSize: opts.PageSize,
		override: opts.AllowOverride,
		now:      opts.Now,
		locker:   opts.Locker,
		recorder: opts.Recorder,
		log:      opts.Logger,
		actorID:  opts.ActorID,
		views:    make(map[string]*View),
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.pageSize <= 0 {
		c.pageSize = appointment.DefaultPageSize
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.locker == nil {
		c.locker = NewLocalLocker()
	}
	if c.recorder == nil {
		c.recorder = audit.NewLogRecorder(c.log)
	}
	return c
}

// Open creates a view of the given kind and loads it from the store.
func (c *Coordinator) Open(ctx context.Context, kind appointment.ViewKind) (*View, error) {
	v, err := c.View(kind)
	if err != nil {
		return nil, err
	}
	if err := v.Load(ctx); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

// View registers an empty view. Call Load to populate it.
func (c *Coordinator) View(kind appointment.ViewKind) (*View, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown view kind %q", kind)
	}
	v := newView(c, kind)
	c.register(v)
	return v, nil
}

// Resident returns the number of open views.
func (c *Coordinator) Resident() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.views)
}

// Close tears down every resident view.
func (c *Coordinator) Close() {
	for _, v := range c.snapshot() {
		v.Close()
	}
}

func (c *Coordinator) register(v *View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[v.id] = v
}

func (c *Coordinator) unregister(v *View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, v.id)
}

func (c *Coordinator) snapshot() []*View {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*View, 0, len(c.views))
	for _, v := range c.views {
		out = append(out, v)
	}
	return out
}

// nextLoad stamps a delivered load. Later loads get larger stamps.
func (c *Coordinator) nextLoad() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	return c.loads
}

// lookup finds the resident copy of an appointment. When several views hold
// it, the copy from the most recent load wins; confirmed mutations reach
// every view, so only loads can make copies disagree.
func (c *Coordinator) lookup(id int64) (appointment.Appointment, bool) {
	var (
		found   appointment.Appointment
		newest  uint64
		matched bool
	)
	for _, v := range c.snapshot() {
		a, seq, ok := v.lookup(id)
		if ok && (!matched || seq > newest) {
			found, newest, matched = a, seq, true
		}
	}
	return found, matched
}

// applyConfirmed pushes a store-confirmed record into every resident view.
func (c *Coordinator) applyConfirmed(a appointment.Appointment) {
	for _, v := range c.snapshot() {
		v.applyConfirmed(a)
	}
}

func (c *Coordinator) removeConfirmed(id int64) {
	for _, v := range c.snapshot() {
		v.remove(id)
	}
}
