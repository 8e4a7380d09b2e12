package workspace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/hackgods/clinic-frontdesk/internal/redis"
)

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	err := l.WithAppointmentLock(ctx, 1, func(ctx context.Context) error {
		inner := l.WithAppointmentLock(ctx, 1, func(context.Context) error {
			t.Fatal("nested lock on the same appointment must not run")
			return nil
		})
		assert.ErrorIs(t, inner, redisclient.ErrLockNotAcquired)

		ran := false
		require.NoError(t, l.WithAppointmentLock(ctx, 2, func(context.Context) error {
			ran = true
			return nil
		}))
		assert.True(t, ran, "other appointments stay unlocked")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, l.WithAppointmentLock(ctx, 1, func(context.Context) error { return nil }),
		"lock is released once fn returns")
}
