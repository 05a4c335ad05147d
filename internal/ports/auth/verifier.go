package auth

import (
	"context"
	"fmt"
)

// AuthVerifier valida un bearer token y devuelve el usuario y su rol.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// VerifierFunc adapta una función a AuthVerifier.
type VerifierFunc func(ctx context.Context, token string) (Claims, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Claims, error) {
	return f(ctx, token)
}

// RoleSource devuelve el rol asignado localmente a un usuario; ok=false si no tiene.
type RoleSource interface {
	RoleOf(ctx context.Context, userID string) (role Role, ok bool, err error)
}

// WithRoles pisa el rol del token con la asignación de src cuando existe.
// Un error de src invalida la autenticación.
func WithRoles(v AuthVerifier, src RoleSource) AuthVerifier {
	if v == nil || src == nil {
		return v
	}
	return VerifierFunc(func(ctx context.Context, token string) (Claims, error) {
		c, err := v.Verify(ctx, token)
		if err != nil {
			return Claims{}, err
		}
		role, ok, err := src.RoleOf(ctx, c.UserID)
		if err != nil {
			return Claims{}, fmt.Errorf("resolve role for %s: %w", c.UserID, err)
		}
		if ok {
			c.Role = role
		}
		return c, nil
	})
}
