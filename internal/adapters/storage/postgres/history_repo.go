package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/history"
)

const historyTable = "pet_history"

var historyColumns = []string{
	"id", "pet_id", "appointment_id", "type", "occurred_at", "recorded_at",
	"title", "notes", "photo_url", "actor_type", "actor_id", "status",
}

type historyRow struct {
	ID            string    `db:"id"`
	PetID         string    `db:"pet_id"`
	AppointmentID *string   `db:"appointment_id"`
	Type          string    `db:"type"`
	OccurredAt    time.Time `db:"occurred_at"`
	RecordedAt    time.Time `db:"recorded_at"`
	Title         string    `db:"title"`
	Notes         string    `db:"notes"`
	PhotoURL      string    `db:"photo_url"`
	ActorType     string    `db:"actor_type"`
	ActorID       string    `db:"actor_id"`
	Status        string    `db:"status"`
}

func (r historyRow) toDomain() history.Entry {
	return history.Entry{
		ID:            r.ID,
		PetID:         r.PetID,
		AppointmentID: deref(r.AppointmentID),
		Type:          history.EntryType(r.Type),
		OccurredAt:    r.OccurredAt,
		RecordedAt:    r.RecordedAt,
		Title:         r.Title,
		Notes:         r.Notes,
		PhotoURL:      r.PhotoURL,
		Actor:         history.Actor{Type: history.ActorType(r.ActorType), ID: r.ActorID},
		Status:        history.Status(r.Status),
	}
}

type HistoryRepo struct {
	db DB
}

var _ history.Repository = (*HistoryRepo)(nil)

func NewHistoryRepo(db DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) Create(ctx context.Context, e history.Entry) error {
	q := psql.Insert(historyTable).Columns(historyColumns...).Values(
		e.ID, e.PetID, nullIfEmpty(e.AppointmentID), string(e.Type), e.OccurredAt, e.RecordedAt,
		e.Title, e.Notes, e.PhotoURL, string(e.Actor.Type), e.Actor.ID, string(e.Status),
	)
	_, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	return mapError(err, "history entry", e.ID)
}

func (r *HistoryRepo) GetByID(ctx context.Context, id string) (history.Entry, error) {
	var row historyRow
	q := psql.Select(historyColumns...).From(historyTable).Where(squirrel.Eq{"id": id})
	if err := getOne(ctx, QuerierFromCtx(ctx, r.db), &row, q); err != nil {
		return history.Entry{}, mapError(err, "history entry", id)
	}
	return row.toDomain(), nil
}

func (r *HistoryRepo) ListByPet(ctx context.Context, petID string, f history.ListFilter) ([]history.Entry, error) {
	q := psql.Select(historyColumns...).From(historyTable).
		Where(squirrel.Eq{"pet_id": petID}).
		OrderBy("occurred_at DESC", "recorded_at DESC")
	if !f.IncludeVoided {
		q = q.Where(squirrel.Eq{"status": string(history.StatusActive)})
	}
	if len(f.Types) > 0 {
		types := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			types = append(types, string(t))
		}
		q = q.Where(squirrel.Eq{"type": types})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"occurred_at": *f.To})
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		pat := likePattern(query)
		q = q.Where(squirrel.Or{squirrel.ILike{"title": pat}, squirrel.ILike{"notes": pat}})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	var rows []historyRow
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &rows, q); err != nil {
		return nil, mapError(err, "history entry", "list")
	}
	out := make([]history.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *HistoryRepo) Void(ctx context.Context, id string) error {
	q := psql.Update(historyTable).
		Set("status", string(history.StatusVoided)).
		Where(squirrel.Eq{"id": id})
	n, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	if err != nil {
		return mapError(err, "history entry", id)
	}
	if n == 0 {
		return errs.NotFound("history entry", id)
	}
	return nil
}
