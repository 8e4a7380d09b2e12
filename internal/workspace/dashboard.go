package workspace

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
)

// Dashboard is the upcoming feed (resident over the full list) plus the collections its counters are
// computed from. All of them stay resident, so confirmed mutations keep the
// counters current without another load.
type Dashboard struct {
	Upcoming *View

	today    *View
	pending  *View
	patients int
}

// OpenDashboard runs the four dashboard fetches concurrently. Either all of
// them succeed and the dashboard is populated, or none of it is.
func (c *Coordinator) OpenDashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{
		Upcoming: newView(c, appointment.ViewDashboardUpcoming),
		today:    newView(c, appointment.ViewAll),
		pending:  newView(c, appointment.ViewAll),
	}

	var (
		patients []appointment.Patient
		today    []appointment.Appointment
		pending  []appointment.Appointment
		all      []appointment.Appointment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		patients, err = c.store.ListPatients(gctx)
		if err != nil {
			return fmt.Errorf("load patients: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		today, err = c.store.ListToday(gctx)
		if err != nil {
			return fmt.Errorf("load today: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		pending, err = c.store.ListByStatus(gctx, appointment.StatusAwaited)
		if err != nil {
			return fmt.Errorf("load pending: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		all, err = c.store.ListAppointments(gctx)
		if err != nil {
			return fmt.Errorf("load appointments: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		c.log.Error().Err(err).Msg("dashboard load failed")
		return nil, err
	}

	today = appointment.Filter(today, appointment.Query{
		Kind:     appointment.ViewToday,
		Now:      c.now(),
		Location: c.loc,
	})

	d.patients = len(patients)
	for _, p := range []struct {
		v     *View
		items []appointment.Appointment
	}{
		{d.Upcoming, all},
		{d.today, today},
		{d.pending, pending},
	} {
		if err := p.v.deliver(p.items); err != nil {
			return nil, err
		}
	}
	for _, v := range []*View{d.Upcoming, d.today, d.pending} {
		c.register(v)
	}

	return d, nil
}

// KPIs recomputes the counters from the resident collections.
func (d *Dashboard) KPIs() appointment.KPIs {
	return appointment.Summarize(d.patients, d.today.Items(), d.pending.Items())
}

// Breakdown groups the full resident collection by status, service and staff.
func (d *Dashboard) Breakdown() appointment.Breakdown {
	return appointment.BreakdownOf(d.Upcoming.Items())
}

// Projection is the current page of the upcoming feed.
func (d *Dashboard) Projection() appointment.Page {
	return d.Upcoming.Projection()
}

func (d *Dashboard) Close() {
	d.Upcoming.Close()
	d.today.Close()
	d.pending.Close()
}
