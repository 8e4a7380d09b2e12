package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired means another mutation on the same appointment holds the lock.
var ErrLockNotAcquired = errors.New("appointment lock not acquired")

// BusyError reports a held lock and, when known, how long the holder may keep it.
type BusyError struct {
	AppointmentID int64
	RetryAfter    time.Duration
}

func (e *BusyError) Error() string {
	if e.RetryAfter <= 0 {
		return fmt.Sprintf("appointment %d is locked", e.AppointmentID)
	}
	return fmt.Sprintf("appointment %d is locked for another %s", e.AppointmentID, e.RetryAfter.Round(time.Millisecond))
}

func (e *BusyError) Unwrap() error {
	return ErrLockNotAcquired
}

// Locker keeps at most one mutation per appointment in flight.
type Locker interface {
	WithAppointmentLock(ctx context.Context, appointmentID int64, fn func(ctx context.Context) error) error
}

// AppointmentLocker holds one Redis key per appointment so every gateway
// replica sees the same lock. The key expires after ttl even if its holder dies.
type AppointmentLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAppointmentLocker(client *redis.Client, ttl time.Duration) *AppointmentLocker {
	return &AppointmentLocker{client: client, ttl: ttl}
}

// WithAppointmentLock runs fn while holding the appointment's key. fn's context
// ends with the key's ttl so a slow store call cannot outlive the lock.
func (l *AppointmentLocker) WithAppointmentLock(ctx context.Context, appointmentID int64, fn func(ctx context.Context) error) error {
	key := lockKey(appointmentID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire appointment lock: %w", err)
	}
	if !ok {
		return l.busy(ctx, key, appointmentID)
	}

	defer func() {
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	lockedCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(lockedCtx)
}

func (l *AppointmentLocker) busy(ctx context.Context, key string, appointmentID int64) error {
	busy := &BusyError{AppointmentID: appointmentID}
	// PTTL is negative when the key vanished or has no expiry
	if left, err := l.client.PTTL(ctx, key).Result(); err == nil && left > 0 {
		busy.RetryAfter = left
	}
	return busy
}

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *AppointmentLocker) release(ctx context.Context, key, token string) error {
	err := releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release appointment lock: %w", err)
	}
	return nil
}

func lockKey(appointmentID int64) string {
	return fmt.Sprintf("clinic:lock:appointment:%d", appointmentID)
}
