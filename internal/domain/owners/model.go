package owners

import "time"

// Owner es el tutor (cliente) dueño de una o más mascotas.
type Owner struct {
	ID string

	Name     string
	Email    string
	Phone    string
	WhatsApp string
	Address  string
	TaxID    string // CPF
	Notes    string

	CreatedAt time.Time
	UpdatedAt time.Time
}
