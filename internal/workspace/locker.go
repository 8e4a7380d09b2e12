package workspace

import (
	"context"
	"sync"

	redisclient "github.com/hackgods/clinic-frontdesk/internal/redis"
)

// LocalLocker is the in-process lock used when no Redis is configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[int64]struct{})}
}

func (l *LocalLocker) WithAppointmentLock(ctx context.Context, appointmentID int64, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if _, busy := l.held[appointmentID]; busy {
		l.mu.Unlock()
		return &redisclient.BusyError{AppointmentID: appointmentID}
	}
	l.held[appointmentID] = struct{}{}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, appointmentID)
		l.mu.Unlock()
	}()

	return fn(ctx)
}
