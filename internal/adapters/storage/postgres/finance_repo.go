package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/finance"
)

const transactionsTable = "transactions"

var transactionColumns = []string{
	"id", "type", "category", "description", "amount", "appointment_id", "employee_id", "date", "created_at",
}

type transactionRow struct {
	ID            string          `db:"id"`
	Type          string          `db:"type"`
	Category      string          `db:"category"`
	Description   string          `db:"description"`
	Amount        decimal.Decimal `db:"amount"`
	AppointmentID *string         `db:"appointment_id"`
	EmployeeID    *string         `db:"employee_id"`
	Date          time.Time       `db:"date"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (r transactionRow) toDomain() finance.Transaction {
	return finance.Transaction{
		ID:            r.ID,
		Type:          finance.Type(r.Type),
		Category:      finance.Category(r.Category),
		Description:   r.Description,
		Amount:        r.Amount,
		AppointmentID: deref(r.AppointmentID),
		EmployeeID:    deref(r.EmployeeID),
		Date:          r.Date,
		CreatedAt:     r.CreatedAt,
	}
}

type totalRow struct {
	Type     string          `db:"type"`
	Category string          `db:"category"`
	Amount   decimal.Decimal `db:"amount"`
}

type TransactionsRepo struct {
	db DB
}

var _ finance.Repository = (*TransactionsRepo)(nil)

func NewTransactionsRepo(db DB) *TransactionsRepo {
	return &TransactionsRepo{db: db}
}

func (r *TransactionsRepo) Create(ctx context.Context, t finance.Transaction) error {
	q := psql.Insert(transactionsTable).Columns(transactionColumns...).Values(
		t.ID, string(t.Type), string(t.Category), t.Description, t.Amount,
		nullIfEmpty(t.AppointmentID), nullIfEmpty(t.EmployeeID), t.Date, t.CreatedAt,
	)
	_, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	return mapError(err, "transaction", t.ID)
}

func (r *TransactionsRepo) GetByID(ctx context.Context, id string) (finance.Transaction, error) {
	var row transactionRow
	q := psql.Select(transactionColumns...).From(transactionsTable).Where(squirrel.Eq{"id": id})
	if err := getOne(ctx, QuerierFromCtx(ctx, r.db), &row, q); err != nil {
		return finance.Transaction{}, mapError(err, "transaction", id)
	}
	return row.toDomain(), nil
}

func (r *TransactionsRepo) List(ctx context.Context, f finance.ListFilter) ([]finance.Transaction, error) {
	q := withRange(psql.Select(transactionColumns...).From(transactionsTable), f.Range).
		OrderBy("date DESC", "created_at DESC", "id ASC")
	if f.Type != "" {
		q = q.Where(squirrel.Eq{"type": string(f.Type)})
	}
	if f.Category != "" {
		q = q.Where(squirrel.Eq{"category": string(f.Category)})
	}
	if f.AppointmentID != "" {
		q = q.Where(squirrel.Eq{"appointment_id": f.AppointmentID})
	}

	var rows []transactionRow
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &rows, q); err != nil {
		return nil, mapError(err, "transaction", "list")
	}
	out := make([]finance.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TransactionsRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, QuerierFromCtx(ctx, r.db), transactionsTable, "transaction", id)
}

// Totals suma en la base; NUMERIC no pierde precisión.
func (r *TransactionsRepo) Totals(ctx context.Context, rng finance.Range) ([]finance.Total, error) {
	q := withRange(psql.Select("type", "category", "SUM(amount) AS amount").From(transactionsTable), rng).
		GroupBy("type", "category").
		OrderBy("type", "category")

	var rows []totalRow
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &rows, q); err != nil {
		return nil, mapError(err, "transaction", "totals")
	}
	out := make([]finance.Total, 0, len(rows))
	for _, row := range rows {
		out = append(out, finance.Total{
			Key:    finance.Key{Type: finance.Type(row.Type), Category: finance.Category(row.Category)},
			Amount: row.Amount,
		})
	}
	return out, nil
}

func withRange(q squirrel.SelectBuilder, rng finance.Range) squirrel.SelectBuilder {
	if rng.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *rng.From})
	}
	if rng.To != nil {
		q = q.Where(squirrel.Lt{"date": *rng.To})
	}
	return q
}
