package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/notifications"
)

const outboxTable = "outbox_messages"

var outboxColumns = []string{
	"id", "kind", "appointment_id", "payload", "status", "attempts",
	"next_attempt_at", "last_error", "created_at", "delivered_at",
}

var outboxReturning = "RETURNING " + strings.Join(outboxColumns, ", ")

type outboxRow struct {
	ID            string     `db:"id"`
	Kind          string     `db:"kind"`
	AppointmentID string     `db:"appointment_id"`
	Payload       []byte     `db:"payload"`
	Status        string     `db:"status"`
	Attempts      int        `db:"attempts"`
	NextAttemptAt time.Time  `db:"next_attempt_at"`
	LastError     string     `db:"last_error"`
	CreatedAt     time.Time  `db:"created_at"`
	DeliveredAt   *time.Time `db:"delivered_at"`
}

func (r outboxRow) toDomain() notifications.Message {
	return notifications.Message{
		ID:            r.ID,
		Kind:          notifications.Kind(r.Kind),
		AppointmentID: r.AppointmentID,
		Payload:       json.RawMessage(r.Payload),
		Status:        notifications.Status(r.Status),
		Attempts:      r.Attempts,
		NextAttemptAt: r.NextAttemptAt,
		LastError:     r.LastError,
		CreatedAt:     r.CreatedAt,
		DeliveredAt:   r.DeliveredAt,
	}
}

// OutboxRepo guarda los avisos pendientes. Los claims usan SKIP LOCKED para
// que varios dispatchers no tomen el mismo mensaje.
type OutboxRepo struct {
	db DB
}

var _ notifications.Repository = (*OutboxRepo)(nil)

func NewOutboxRepo(db DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

func (r *OutboxRepo) Enqueue(ctx context.Context, m notifications.Message) error {
	q := psql.Insert(outboxTable).Columns(outboxColumns...).Values(
		m.ID, string(m.Kind), m.AppointmentID, []byte(m.Payload), string(m.Status), m.Attempts,
		m.NextAttemptAt, m.LastError, m.CreatedAt, m.DeliveredAt,
	)
	_, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	return mapError(err, "notification", m.ID)
}

func (r *OutboxRepo) GetByID(ctx context.Context, id string) (notifications.Message, error) {
	var row outboxRow
	q := psql.Select(outboxColumns...).From(outboxTable).Where(squirrel.Eq{"id": id})
	if err := getOne(ctx, QuerierFromCtx(ctx, r.db), &row, q); err != nil {
		return notifications.Message{}, mapError(err, "notification", id)
	}
	return row.toDomain(), nil
}

func (r *OutboxRepo) List(ctx context.Context, f notifications.ListFilter) ([]notifications.Message, error) {
	q := psql.Select(outboxColumns...).From(outboxTable).OrderBy("created_at DESC", "id ASC")
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(f.Status)})
	}
	if f.AppointmentID != "" {
		q = q.Where(squirrel.Eq{"appointment_id": f.AppointmentID})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return r.list(ctx, q)
}

func (r *OutboxRepo) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]notifications.Message, error) {
	// subconsulta con "?": el builder externo numera los placeholders
	due := squirrel.Select("id").From(outboxTable).
		Where(squirrel.Eq{"status": string(notifications.StatusPending)}).
		Where(squirrel.LtOrEq{"next_attempt_at": now}).
		OrderBy("next_attempt_at ASC").
		Suffix("FOR UPDATE SKIP LOCKED")
	if limit > 0 {
		due = due.Limit(uint64(limit))
	}

	q := psql.Update(outboxTable).
		Set("next_attempt_at", now.Add(lease)).
		Where(squirrel.Expr("id IN (?)", due)).
		Suffix(outboxReturning)

	var rows []outboxRow
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &rows, q); err != nil {
		return nil, mapError(err, "notification", "claim")
	}
	out := make([]notifications.Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *OutboxRepo) ClaimByID(ctx context.Context, id string, now time.Time, lease time.Duration) (notifications.Message, bool, error) {
	q := psql.Update(outboxTable).
		Set("next_attempt_at", now.Add(lease)).
		Where(squirrel.Eq{"id": id, "status": string(notifications.StatusPending)}).
		Where(squirrel.LtOrEq{"next_attempt_at": now}).
		Suffix(outboxReturning)

	var row outboxRow
	err := getOne(ctx, QuerierFromCtx(ctx, r.db), &row, q)
	if err == nil {
		return row.toDomain(), true, nil
	}
	if mapped := mapError(err, "notification", id); !errors.Is(mapped, errs.ErrNotFound) {
		return notifications.Message{}, false, mapped
	}
	// existe pero no está disponible (entregado, fallido o ya tomado)
	if _, err := r.GetByID(ctx, id); err != nil {
		return notifications.Message{}, false, err
	}
	return notifications.Message{}, false, nil
}

func (r *OutboxRepo) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	q := psql.Update(outboxTable).
		Set("status", string(notifications.StatusDelivered)).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("delivered_at", at).
		Set("last_error", "").
		Where(squirrel.Eq{"id": id})
	return r.execOne(ctx, id, q)
}

func (r *OutboxRepo) MarkAttemptFailed(ctx context.Context, id string, attempts int, nextAt time.Time, lastErr string, final bool) error {
	q := psql.Update(outboxTable).
		Set("attempts", attempts).
		Set("next_attempt_at", nextAt).
		Set("last_error", lastErr).
		Where(squirrel.Eq{"id": id})
	if final {
		q = q.Set("status", string(notifications.StatusFailed))
	}
	return r.execOne(ctx, id, q)
}

func (r *OutboxRepo) execOne(ctx context.Context, id string, q squirrel.UpdateBuilder) error {
	n, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	if err != nil {
		return mapError(err, "notification", id)
	}
	if n == 0 {
		return errs.NotFound("notification", id)
	}
	return nil
}

func (r *OutboxRepo) list(ctx context.Context, q squirrel.SelectBuilder) ([]notifications.Message, error) {
	var rows []outboxRow
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &rows, q); err != nil {
		return nil, mapError(err, "notification", "list")
	}
	out := make([]notifications.Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
