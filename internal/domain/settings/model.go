package settings

import (
	"context"

	"petshop-manager/internal/domain/catalog"
)

// Settings es el objeto de ajustes del negocio. Se carga una vez al arrancar
// y se inyecta en los componentes que lo consultan.
type Settings struct {
	BusinessName    string                        `json:"business_name"`
	BusinessPhone   string                        `json:"business_phone"`
	BusinessAddress string                        `json:"business_address"`
	Departments     map[catalog.DepartmentID]bool `json:"departments"`
	WebhookURL      string                        `json:"webhook_url"`
}

// Defaults: todos los departamentos habilitados.
func Defaults(businessName, webhookURL string) Settings {
	deps := make(map[catalog.DepartmentID]bool, len(catalog.AllDepartments()))
	for _, d := range catalog.AllDepartments() {
		deps[d] = true
	}
	return Settings{
		BusinessName: businessName,
		Departments:  deps,
		WebhookURL:   webhookURL,
	}
}

func (s Settings) clone() Settings {
	out := s
	out.Departments = make(map[catalog.DepartmentID]bool, len(s.Departments))
	for k, v := range s.Departments {
		out.Departments[k] = v
	}
	return out
}

// mergeOver completa con defaults lo que falte en lo persistido y descarta
// departamentos desconocidos.
func mergeOver(stored, defaults Settings) Settings {
	out := defaults.clone()
	if stored.BusinessName != "" {
		out.BusinessName = stored.BusinessName
	}
	out.BusinessPhone = stored.BusinessPhone
	out.BusinessAddress = stored.BusinessAddress
	if stored.WebhookURL != "" {
		out.WebhookURL = stored.WebhookURL
	}
	for k, v := range stored.Departments {
		if k.IsValid() {
			out.Departments[k] = v
		}
	}
	return out
}

// Store persiste el objeto completo. found=false si nunca se guardó.
type Store interface {
	Load(ctx context.Context) (s Settings, found bool, err error)
	Save(ctx context.Context, s Settings) error
}
