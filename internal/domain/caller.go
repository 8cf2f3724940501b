package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Caller is the authenticated identity handed over by the request layer.
type Caller struct {
	ID   string
	Role Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
