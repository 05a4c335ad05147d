package employees

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"petshop-manager/internal/domain/catalog"
)

// Role es el cargo del funcionario.
// @Enum admin, manager, groomer, veterinarian, trainer, receptionist, driver
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleGroomer      Role = "groomer"
	RoleVeterinarian Role = "veterinarian"
	RoleTrainer      Role = "trainer"
	RoleReceptionist Role = "receptionist"
	RoleDriver       Role = "driver"
)

var allRoles = [...]Role{
	RoleAdmin, RoleManager, RoleGroomer, RoleVeterinarian,
	RoleTrainer, RoleReceptionist, RoleDriver,
}

var roleLabels = [...]string{
	"Administrador", "Gerente", "Tosador", "Veterinário",
	"Adestrador", "Recepcionista", "Motorista",
}

var _ = [1]struct{}{}[len(allRoles)-len(roleLabels)]

func (r Role) IsValid() bool { return slices.Contains(allRoles[:], r) }

func (r Role) Label() string {
	if i := slices.Index(allRoles[:], r); i >= 0 {
		return roleLabels[i]
	}
	return ""
}

type Employee struct {
	ID string

	Name     string
	Email    string
	Phone    string
	Role     Role
	PhotoURL string

	// Departments vacío = atiende cualquier departamento.
	Departments []catalog.DepartmentID

	CommissionEnabled bool
	// CommissionPercentage sobreescribe el % del servicio si CommissionEnabled.
	CommissionPercentage *decimal.Decimal

	Active bool
	UserID string // usuario de login vinculado, opcional

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e Employee) ServesDepartment(d catalog.DepartmentID) bool {
	return len(e.Departments) == 0 || slices.Contains(e.Departments, d)
}

// EffectiveCommission devuelve el % a pagar por un servicio:
// override del funcionario si está habilitado; si no, el % del servicio; nil = sin comisión.
func (e Employee) EffectiveCommission(serviceRate *decimal.Decimal) *decimal.Decimal {
	if e.CommissionEnabled && e.CommissionPercentage != nil {
		return e.CommissionPercentage
	}
	return serviceRate
}

// CommissionAmount = base * pct / 100, redondeado a centavos.
func CommissionAmount(base decimal.Decimal, pct *decimal.Decimal) decimal.Decimal {
	if pct == nil || !pct.IsPositive() || !base.IsPositive() {
		return decimal.Zero
	}
	return base.Mul(*pct).Div(decimal.NewFromInt(100)).Round(2)
}

type ListFilter struct {
	ActiveOnly   bool
	DepartmentID catalog.DepartmentID
}
