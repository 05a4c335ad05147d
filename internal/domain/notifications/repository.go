package notifications

import (
	"context"
	"time"
)

type Repository interface {
	Enqueue(ctx context.Context, m Message) error
	GetByID(ctx context.Context, id string) (Message, error)
	List(ctx context.Context, f ListFilter) ([]Message, error)

	// ClaimDue toma hasta limit mensajes pending con next_attempt_at <= now y
	// corre su next_attempt_at a now+lease, para que otro dispatcher no los tome.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]Message, error)
	// ClaimByID igual que ClaimDue para un id. ok=false si no estaba disponible.
	ClaimByID(ctx context.Context, id string, now time.Time, lease time.Duration) (m Message, ok bool, err error)

	MarkDelivered(ctx context.Context, id string, at time.Time) error
	// MarkAttemptFailed guarda el intento; final=true pasa a failed.
	MarkAttemptFailed(ctx context.Context, id string, attempts int, nextAt time.Time, lastErr string, final bool) error
}
