package finance

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Type: el signo del monto lo da el tipo.
// @Enum income, expense
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

var allTypes = [...]Type{TypeIncome, TypeExpense}

var typeLabels = [...]string{"Receita", "Despesa"}

var _ = [1]struct{}{}[len(allTypes)-len(typeLabels)]

func AllTypes() []Type { return allTypes[:] }

func (t Type) IsValid() bool  { return slices.Contains(allTypes[:], t) }
func (t Type) String() string { return string(t) }

func (t Type) Label() string {
	if i := slices.Index(allTypes[:], t); i >= 0 {
		return typeLabels[i]
	}
	return ""
}

// Category agrupa transacciones para el resumen.
// @Enum service, product, package, commission, other
type Category string

const (
	CategoryService    Category = "service"
	CategoryProduct    Category = "product"
	CategoryPackage    Category = "package"
	CategoryCommission Category = "commission"
	CategoryOther      Category = "other"
)

var allCategories = [...]Category{
	CategoryService, CategoryProduct, CategoryPackage, CategoryCommission, CategoryOther,
}

var categoryLabels = [...]string{"Serviço", "Produto", "Pacote", "Comissão", "Outro"}

var _ = [1]struct{}{}[len(allCategories)-len(categoryLabels)]

func AllCategories() []Category { return allCategories[:] }

func (c Category) IsValid() bool  { return slices.Contains(allCategories[:], c) }
func (c Category) String() string { return string(c) }

func (c Category) Label() string {
	if i := slices.Index(allCategories[:], c); i >= 0 {
		return categoryLabels[i]
	}
	return ""
}

// Transaction es inmutable: no hay Update.
type Transaction struct {
	ID          string
	Type        Type
	Category    Category
	Description string
	Amount      decimal.Decimal // > 0

	AppointmentID string // opcional
	EmployeeID    string // opcional

	Date      time.Time
	CreatedAt time.Time
}

// Range es semiabierto [From, To). nil = sin límite.
type Range struct {
	From *time.Time
	To   *time.Time
}

func (r Range) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && !t.Before(*r.To) {
		return false
	}
	return true
}

type ListFilter struct {
	Range
	Type          Type
	Category      Category
	AppointmentID string
}

// Key identifica una fila del desglose.
type Key struct {
	Type     Type
	Category Category
}

func (k Key) String() string { return string(k.Type) + "_" + string(k.Category) }

// Total es la suma de una clave (lo que devuelve el repo agrupado).
type Total struct {
	Key
	Amount decimal.Decimal
}

type Summary struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Net           decimal.Decimal
	ByCategory    map[Key]decimal.Decimal
}
