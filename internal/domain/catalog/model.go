package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepartmentID identifica las áreas fijas del pet shop.
// @Enum estetica, saude, educacao, estadia, logistica
type DepartmentID string

const (
	DepartmentEstetica  DepartmentID = "estetica"
	DepartmentSaude     DepartmentID = "saude"
	DepartmentEducacao  DepartmentID = "educacao"
	DepartmentEstadia   DepartmentID = "estadia"
	DepartmentLogistica DepartmentID = "logistica"
)

var allDepartments = [...]DepartmentID{
	DepartmentEstetica,
	DepartmentSaude,
	DepartmentEducacao,
	DepartmentEstadia,
	DepartmentLogistica,
}

type departmentInfo struct {
	Name        string
	Description string
}

var departmentInfos = [...]departmentInfo{
	{"Estética", "Banho, tosa e cuidados com a aparência"},
	{"Saúde", "Consultas, vacinas e exames"},
	{"Educação", "Adestramento e comportamento"},
	{"Estadia", "Creche e hotel"},
	{"Logística", "Leva e traz"},
}

// Falla la compilación si agregan un departamento sin su info (o al revés).
var _ = [1]struct{}{}[len(allDepartments)-len(departmentInfos)]

func AllDepartments() []DepartmentID {
	return append([]DepartmentID(nil), allDepartments[:]...)
}

func (d DepartmentID) IsValid() bool {
	return d.index() >= 0
}

func (d DepartmentID) String() string { return string(d) }

// Label devuelve el nombre para mostrar; vacío si el id no existe.
func (d DepartmentID) Label() string {
	if i := d.index(); i >= 0 {
		return departmentInfos[i].Name
	}
	return ""
}

func (d DepartmentID) index() int {
	for i, v := range allDepartments {
		if v == d {
			return i
		}
	}
	return -1
}

// Department es la vista de un departamento con su estado en settings.
type Department struct {
	ID          DepartmentID
	Name        string
	Description string
	Enabled     bool
}

// Offering es un servicio del catálogo (p.ej. "Banho e Tosa").
type Offering struct {
	ID           string
	DepartmentID DepartmentID

	Name            string
	Description     string
	DurationMinutes int
	Price           decimal.Decimal

	// CommissionPercentage es opcional (0..100). nil = el servicio no define comisión.
	CommissionPercentage *decimal.Decimal

	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListFilter struct {
	DepartmentID DepartmentID // vacío = todos
	ActiveOnly   bool
}
