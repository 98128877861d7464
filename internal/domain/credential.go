package domain

import "time"

// Built-in roles. Deployments may configure more.
const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleSeller = "seller"
)

// Credential is the stored identity record of an account. Email is unique.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

// PublicCredential is the projection of a Credential safe to return to clients.
type PublicCredential struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Public strips the password hash.
func (c *Credential) Public() PublicCredential {
	return PublicCredential{
		ID:        c.ID,
		Email:     c.Email,
		Role:      c.Role,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
	}
}
