package catalog

import "github.com/shopspring/decimal"

type defaultOffering struct {
	department DepartmentID
	name       string
	minutes    int
	price      int64
	commission int64 // 0 = sin comisión definida
}

var defaultOfferings = []defaultOffering{
	{DepartmentEstetica, "Banho", 60, 50, 10},
	{DepartmentEstetica, "Tosa", 90, 80, 15},
	{DepartmentEstetica, "Banho e Tosa", 120, 120, 15},
	{DepartmentEstetica, "Hidratação", 30, 40, 10},
	{DepartmentSaude, "Consulta", 30, 150, 0},
	{DepartmentSaude, "Vacina", 15, 80, 0},
	{DepartmentSaude, "Exame de Sangue", 20, 120, 0},
	{DepartmentSaude, "Exame de Imagem", 45, 200, 0},
	{DepartmentEducacao, "Adestramento", 60, 120, 0},
	{DepartmentEducacao, "Consultoria Comportamental", 90, 200, 0},
	{DepartmentEstadia, "Creche (Day Care)", 480, 80, 0},
	{DepartmentEstadia, "Hotel (Diária)", 1440, 120, 0},
	{DepartmentLogistica, "Leva e Traz", 60, 40, 0},
	{DepartmentLogistica, "Só Leva", 30, 25, 0},
	{DepartmentLogistica, "Só Traz", 30, 25, 0},
}

// DefaultCreateInputs devuelve el catálogo inicial del pet shop.
func DefaultCreateInputs() []CreateInput {
	out := make([]CreateInput, 0, len(defaultOfferings))
	for _, d := range defaultOfferings {
		in := CreateInput{
			DepartmentID:    d.department,
			Name:            d.name,
			DurationMinutes: d.minutes,
			Price:           decimal.NewFromInt(d.price),
		}
		if d.commission > 0 {
			c := decimal.NewFromInt(d.commission)
			in.CommissionPercentage = &c
		}
		out = append(out, in)
	}
	return out
}
