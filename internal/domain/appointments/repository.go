package appointments

import "context"

type Repository interface {
	Create(ctx context.Context, a Appointment) error
	// Update guarda solo los campos editables (departamento, servicio, funcionario,
	// paquete, horario, notas). No toca status, timestamps de check-in/out ni price.
	Update(ctx context.Context, a Appointment) error
	GetByID(ctx context.Context, id string) (Appointment, error)
	List(ctx context.Context, f ListFilter) ([]Appointment, error)
	Delete(ctx context.Context, id string) error

	// Transition guarda status, check-in/out, fotos y notas solo si el status
	// almacenado sigue siendo from. Si no, ErrConflict.
	Transition(ctx context.Context, a Appointment, from Status) error
}
