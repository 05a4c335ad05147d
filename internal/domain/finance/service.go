package finance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/platform/logger"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

type RecordInput struct {
	Type          Type
	Category      Category
	Description   string
	Amount        decimal.Decimal
	AppointmentID string
	EmployeeID    string
	Date          time.Time // zero => now
}

// Record agrega una transacción. Dentro de RunInTx participa de la tx del ctx.
func (s *Service) Record(ctx context.Context, in RecordInput) (Transaction, error) {
	now := s.now().UTC()
	t := Transaction{
		ID:            uuid.NewString(),
		Type:          in.Type,
		Category:      in.Category,
		Description:   strings.TrimSpace(in.Description),
		Amount:        in.Amount,
		AppointmentID: strings.TrimSpace(in.AppointmentID),
		EmployeeID:    strings.TrimSpace(in.EmployeeID),
		Date:          in.Date,
		CreatedAt:     now,
	}
	if t.Date.IsZero() {
		t.Date = now
	}
	if err := validate(t); err != nil {
		return Transaction{}, err
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (Transaction, error) {
	if strings.TrimSpace(id) == "" {
		return Transaction{}, errs.Invalid("transaction_id", "required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Transaction, error) {
	if f.Type != "" && !f.Type.IsValid() {
		return nil, errs.Invalid("type", "unknown transaction type")
	}
	if f.Category != "" && !f.Category.IsValid() {
		return nil, errs.Invalid("category", "unknown transaction category")
	}
	if err := checkRange(f.Range); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

// Delete borra físicamente. Solo admin; queda en el log.
func (s *Service) Delete(ctx context.Context, id string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.FromContext(ctx).Warn("transaction deleted", map[string]any{
		"transaction_id": t.ID,
		"type":           t.Type,
		"category":       t.Category,
		"amount":         t.Amount.StringFixed(2),
	})
	return nil
}

// Summary agrega en decimal exacto sobre [From, To).
func (s *Service) Summary(ctx context.Context, r Range) (Summary, error) {
	if err := checkRange(r); err != nil {
		return Summary{}, err
	}
	totals, err := s.repo.Totals(ctx, r)
	if err != nil {
		return Summary{}, err
	}
	return Aggregate(totals), nil
}

// Aggregate arma el resumen a partir de totales agrupados (o de filas sueltas:
// claves repetidas se suman).
func Aggregate(totals []Total) Summary {
	out := Summary{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		ByCategory:    make(map[Key]decimal.Decimal, len(totals)),
	}
	for _, t := range totals {
		switch t.Type {
		case TypeIncome:
			out.TotalIncome = out.TotalIncome.Add(t.Amount)
		case TypeExpense:
			out.TotalExpenses = out.TotalExpenses.Add(t.Amount)
		default:
			continue
		}
		out.ByCategory[t.Key] = out.ByCategory[t.Key].Add(t.Amount)
	}
	out.Net = out.TotalIncome.Sub(out.TotalExpenses)
	return out
}

// MonthRange devuelve [primer día del mes, primer día del mes siguiente) en loc.
func MonthRange(t time.Time) Range {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	to := from.AddDate(0, 1, 0)
	return Range{From: &from, To: &to}
}

func checkRange(r Range) error {
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return errs.Invalid("to", "must not be before from")
	}
	return nil
}

func validate(t Transaction) error {
	if !t.Type.IsValid() {
		return errs.Invalid("type", "unknown transaction type")
	}
	if !t.Category.IsValid() {
		return errs.Invalid("category", "unknown transaction category")
	}
	if !t.Amount.IsPositive() {
		return errs.Invalid("amount", "must be > 0")
	}
	if t.Description == "" {
		return errs.Invalid("description", "required")
	}
	return nil
}
