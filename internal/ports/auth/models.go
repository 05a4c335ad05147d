package auth

// Role es el rol de la aplicación (no confundir con el cargo del funcionario).
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleColaborador Role = "colaborador"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleColaborador
}

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	Role   Role
}

func (c Claims) IsAdmin() bool { return c.Role == RoleAdmin }
