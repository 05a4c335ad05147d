package pets

import (
	"context"
	"fmt"

	"petshop-manager/internal/domain/errs"
)

// OwnerOf expone el ownerID de una mascota.
// Lo consumen packages y appointments vía interfaz para no importar pets.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.Get(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerID, nil
}

// EnsureBelongsTo falla con ErrValidation si la mascota no es del tutor.
func (s *Service) EnsureBelongsTo(ctx context.Context, petID, ownerID string) error {
	owner, err := s.OwnerOf(ctx, petID)
	if err != nil {
		return err
	}
	if owner != ownerID {
		return fmt.Errorf("pet %s: %w", petID, errs.Invalid("pet_id", "pet does not belong to owner"))
	}
	return nil
}
