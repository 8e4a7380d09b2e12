package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusAwaited, StatusArrived, true},
		{StatusAwaited, StatusCancelled, true},
		{StatusAwaited, StatusCompleted, false},
		{StatusArrived, StatusCompleted, true},
		{StatusArrived, StatusCancelled, true},
		{StatusArrived, StatusAwaited, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusAwaited, false},
		{StatusCancelled, StatusAwaited, false},
		{StatusAwaited, StatusAwaited, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTransition(t *testing.T) {
	a := Appointment{ID: 1, Status: StatusArrived}

	done, err := Transition(a, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, StatusArrived, a.Status, "input must not change")

	_, err = Transition(done, StatusAwaited)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = Transition(a, Status("llegada"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTransition_FromFinalStatus(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		assert.True(t, s.IsTerminal(), s)
		for _, to := range []Status{StatusAwaited, StatusArrived, StatusCompleted, StatusCancelled} {
			_, err := Transition(Appointment{ID: 1, Status: s}, to)
			assert.ErrorIs(t, err, ErrInvalidStatusTransition, "%s -> %s", s, to)
			assert.ErrorContains(t, err, "is final")
		}
	}
	assert.False(t, StatusAwaited.IsTerminal())
	assert.False(t, StatusArrived.IsTerminal())
}

func TestRegisterArrival(t *testing.T) {
	arrived, err := RegisterArrival(Appointment{ID: 1, Status: StatusAwaited})
	require.NoError(t, err)
	assert.Equal(t, StatusArrived, arrived.Status)

	_, err = RegisterArrival(arrived)
	assert.ErrorIs(t, err, ErrAlreadyArrived)

	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		_, err = RegisterArrival(Appointment{ID: 2, Status: s})
		assert.ErrorIs(t, err, ErrInvalidStatusTransition, s)
	}
}

func TestSetStatus_BypassesLifecycle(t *testing.T) {
	back, err := SetStatus(Appointment{ID: 1, Status: StatusCompleted}, StatusAwaited)
	require.NoError(t, err)
	assert.Equal(t, StatusAwaited, back.Status)

	_, err = SetStatus(Appointment{ID: 1}, Status("unknown"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestNext(t *testing.T) {
	assert.Equal(t, []Status{StatusArrived, StatusCancelled}, Next(StatusAwaited))
	assert.Empty(t, Next(StatusCompleted))

	n := Next(StatusAwaited)
	n[0] = StatusCompleted
	assert.Equal(t, StatusArrived, Next(StatusAwaited)[0])
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("cancelled")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, s)

	_, err = ParseStatus("cancelado")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
