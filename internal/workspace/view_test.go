package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-frontdesk/internal/appointment"
)

func TestView_LateLoadAfterCloseIsDropped(t *testing.T) {
	s := sampleStore()
	s.listGate = make(chan struct{})
	s.listStarted = make(chan struct{}, 1)
	c, _ := newTestCoordinator(t, s, false)

	v, err := c.View(appointment.ViewAll)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- v.Load(context.Background()) }()
	<-s.listStarted

	v.Close()
	close(s.listGate)

	require.ErrorIs(t, <-done, ErrViewClosed)
	assert.False(t, v.Loaded())
	assert.Equal(t, 0, v.Projection().TotalCount)
	assert.Equal(t, 0, c.Resident())
}

func TestView_ClosedViewIgnoresConfirmations(t *testing.T) {
	c, _ := newTestCoordinator(t, sampleStore(), false)
	ctx := context.Background()

	today, err := c.Open(ctx, appointment.ViewToday)
	require.NoError(t, err)
	all, err := c.Open(ctx, appointment.ViewAll)
	require.NoError(t, err)

	today.Close()
	_, err = c.RegisterArrival(ctx, 1)
	require.NoError(t, err)

	a, ok := today.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, appointment.StatusAwaited, a.Status)

	a, _ = all.Lookup(1)
	assert.Equal(t, appointment.StatusArrived, a.Status)
}

func TestView_SortToggleOnlyOnFullList(t *testing.T) {
	c, _ := newTestCoordinator(t, sampleStore(), false)
	ctx := context.Background()

	all, err := c.Open(ctx, appointment.ViewAll)
	require.NoError(t, err)
	asc := ids(all.Projection().Rows)

	desc := ids(all.ToggleSort().Rows)
	assert.Equal(t, []int64{3, 2, 1, 4}, desc)
	assert.Equal(t, asc, ids(all.ToggleSort().Rows))

	today, err := c.Open(ctx, appointment.ViewToday)
	require.NoError(t, err)
	today.ToggleSort()
	assert.Equal(t, appointment.SortAsc, today.Sort())
	assert.Equal(t, []int64{1, 2}, ids(today.Projection().Rows))
}

func TestView_PageStaysClampedAfterRemoval(t *testing.T) {
	items := make([]appointment.Appointment, 0, 11)
	for i := 1; i <= 11; i++ {
		items = append(items, appt(int64(i), at(10, 0).Add(timeStep(i)), appointment.StatusAwaited))
	}
	c, _ := newTestCoordinator(t, newFakeStore(items...), false)
	ctx := context.Background()

	today, err := c.Open(ctx, appointment.ViewToday)
	require.NoError(t, err)

	p := today.SetPage(2)
	require.Equal(t, 2, p.Page)
	require.Equal(t, []int64{11}, ids(p.Rows))

	_, err = c.RegisterArrival(ctx, 11)
	require.NoError(t, err)

	p = today.Projection()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 1, p.PageCount)
	assert.Len(t, p.Rows, 10)

	p = today.SetPage(2)
	assert.Equal(t, 1, p.Page)
	p = today.SetPage(0)
	assert.Equal(t, 1, p.Page)
}

func timeStep(i int) time.Duration {
	return time.Duration(i) * 30 * time.Minute
}
