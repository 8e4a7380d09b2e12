package workspace

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
)

// View is one resident list: its own collection plus sort and page state.
// Views never share collections; each one is loaded independently.
type View struct {
	id    string
	kind  appointment.ViewKind
	coord *Coordinator
	log   zerolog.Logger

	mu     sync.Mutex
	items  []appointment.Appointment
	seq    uint64 // stamp of the load that filled items
	loaded bool
	closed bool
	sort   appointment.SortDirection
	page   int
}

func newView(c *Coordinator, kind appointment.ViewKind) *View {
	id := uuid.NewString()
	return &View{
		id:    id,
		kind:  kind,
		coord: c,
		log:   c.log.With().Str("view", string(kind)).Str("view_id", id).Logger(),
		sort:  appointment.SortAsc,
		page:  1,
	}
}

func (v *View) ID() string {
	return v.id
}

func (v *View) Kind() appointment.ViewKind {
	return v.kind
}

// Load fetches the view's collection. A result that arrives after Close is
// dropped and Load reports ErrViewClosed.
func (v *View) Load(ctx context.Context) error {
	items, err := v.coord.store.ListAppointments(ctx)
	if err != nil {
		return fmt.Errorf("load %s view: %w", v.kind, err)
	}
	return v.deliver(items)
}

func (v *View) deliver(items []appointment.Appointment) error {
	seq := v.coord.nextLoad()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		v.log.Debug().Int("rows", len(items)).Msg("dropping load result for closed view")
		return ErrViewClosed
	}
	v.items = append([]appointment.Appointment(nil), items...)
	v.seq = seq
	v.loaded = true
	return nil
}

// Loaded reports whether a load has completed.
func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Close detaches the view. Later loads and confirmations leave it untouched.
func (v *View) Close() {
	v.mu.Lock()
	already := v.closed
	v.closed = true
	v.mu.Unlock()

	if !already {
		v.coord.unregister(v)
	}
}

// Projection renders the current page. The stored page is re-clamped so it
// never drifts outside the page range after rows disappear.
func (v *View) Projection() appointment.Page {
	v.mu.Lock()
	defer v.mu.Unlock()

	p := appointment.Project(v.items, v.query())
	v.page = p.Page
	return p
}

// Items returns a copy of the resident collection.
func (v *View) Items() []appointment.Appointment {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]appointment.Appointment(nil), v.items...)
}

func (v *View) SetPage(page int) appointment.Page {
	v.mu.Lock()
	v.page = page
	v.mu.Unlock()
	return v.Projection()
}

// SetSort is honoured only by views with a sort toggle.
func (v *View) SetSort(dir appointment.SortDirection) appointment.Page {
	v.mu.Lock()
	if v.kind.SortToggle() && (dir == appointment.SortAsc || dir == appointment.SortDesc) {
		v.sort = dir
	}
	v.mu.Unlock()
	return v.Projection()
}

func (v *View) ToggleSort() appointment.Page {
	v.mu.Lock()
	dir := v.sort.Toggle()
	v.mu.Unlock()
	return v.SetSort(dir)
}

func (v *View) Sort() appointment.SortDirection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sort
}

// Lookup returns the resident copy of an appointment.
func (v *View) Lookup(id int64) (appointment.Appointment, bool) {
	a, _, ok := v.lookup(id)
	return a, ok
}

func (v *View) lookup(id int64) (appointment.Appointment, uint64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.index(id); i >= 0 {
		return v.items[i], v.seq, true
	}
	return appointment.Appointment{}, 0, false
}

func (v *View) query() appointment.Query {
	return appointment.Query{
		Kind:     v.kind,
		Sort:     v.sort,
		Page:     v.page,
		PageSize: v.coord.pageSize,
		Now:      v.coord.now(),
		Location: v.coord.loc,
	}
}

func (v *View) index(id int64) int {
	for i, a := range v.items {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// applyConfirmed replaces the resident copy. The today queue tracks patients
// not yet at the desk, so an arrival drops the row there.
func (v *View) applyConfirmed(a appointment.Appointment) {
	if v.kind == appointment.ViewToday && a.Status == appointment.StatusArrived {
		v.remove(a.ID)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	if i := v.index(a.ID); i >= 0 {
		v.items[i] = a
	}
}

func (v *View) remove(id int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	if i := v.index(id); i >= 0 {
		v.items = append(v.items[:i:i], v.items[i+1:]...)
	}
}
