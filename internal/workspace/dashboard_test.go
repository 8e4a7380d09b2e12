package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
)

func dashboardStore() *fakeStore {
	s := sampleStore()
	s.today = []appointment.Appointment{
		appt(1, at(10, 9), appointment.StatusAwaited),
		appt(2, at(10, 15), appointment.StatusAwaited),
		appt(4, at(9, 9), appointment.StatusCompleted),
	}
	s.patients = []appointment.Patient{{ID: 1001}, {ID: 1002}}
	return s
}

func TestOpenDashboard(t *testing.T) {
	c, _ := newTestCoordinator(t, dashboardStore(), false)

	d, err := c.OpenDashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, appointment.KPIs{TotalPatients: 2, AppointmentsToday: 2, Pending: 3}, d.KPIs())

	p := d.Projection()
	assert.Equal(t, []int64{2, 3}, ids(p.Rows))
	assert.Equal(t, 1, p.First())
	assert.Equal(t, 2, p.Last())
	assert.Equal(t, 2, p.TotalCount)
}

func TestOpenDashboard_ArrivalUpdatesCountersAndFeed(t *testing.T) {
	c, _ := newTestCoordinator(t, dashboardStore(), false)
	ctx := context.Background()

	d, err := c.OpenDashboard(ctx)
	require.NoError(t, err)

	_, err = c.RegisterArrival(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, d.KPIs().Pending)
	assert.Equal(t, 2, d.KPIs().AppointmentsToday)
	assert.Equal(t, []int64{3}, ids(d.Projection().Rows))

	require.NoError(t, c.DeleteAppointment(ctx, 3, true))
	assert.Equal(t, 1, d.KPIs().Pending)
	assert.Empty(t, d.Projection().Rows)
	assert.Equal(t, 1, d.Projection().PageCount)
}

func TestOpenDashboard_BreakdownFollowsConfirmedMutations(t *testing.T) {
	s := dashboardStore()
	s.appointments[2].Service = "neurologia"
	s.appointments[2].AssignedStaff = "Dra. Rojas"
	c, _ := newTestCoordinator(t, s, false)
	ctx := context.Background()

	d, err := c.OpenDashboard(ctx)
	require.NoError(t, err)

	b := d.Breakdown()
	assert.Equal(t, []appointment.Bucket{
		{Key: "awaited", Count: 3},
		{Key: "arrived", Count: 0},
		{Key: "completed", Count: 1},
		{Key: "cancelled", Count: 0},
	}, b.Status)
	assert.Equal(t, []appointment.Bucket{{Key: "medico general", Count: 3}, {Key: "neurologia", Count: 1}}, b.Service)
	assert.Equal(t, []appointment.Bucket{{Key: "unassigned", Count: 3}, {Key: "Dra. Rojas", Count: 1}}, b.Staff)

	_, err = c.RegisterArrival(ctx, 2)
	require.NoError(t, err)

	b = d.Breakdown()
	assert.Equal(t, 2, b.Status[0].Count)
	assert.Equal(t, 1, b.Status[1].Count)
}

func TestOpenDashboard_AllOrNothing(t *testing.T) {
	boom := errors.New("boom")

	cases := map[string]func(*fakeStore){
		"patients": func(s *fakeStore) { s.patientErr = boom },
		"today":    func(s *fakeStore) { s.todayErr = boom },
		"pending":  func(s *fakeStore) { s.pendingErr = boom },
		"all":      func(s *fakeStore) { s.listErr = boom },
	}

	for name, breakStore := range cases {
		t.Run(name, func(t *testing.T) {
			s := dashboardStore()
			breakStore(s)
			c, _ := newTestCoordinator(t, s, false)

			d, err := c.OpenDashboard(context.Background())
			require.ErrorIs(t, err, boom)
			assert.Nil(t, d)
			assert.Equal(t, 0, c.Resident())
		})
	}
}

func TestDashboard_Close(t *testing.T) {
	c, _ := newTestCoordinator(t, dashboardStore(), false)

	d, err := c.OpenDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, c.Resident())

	d.Close()
	assert.Equal(t, 0, c.Resident())
}
