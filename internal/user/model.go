package user

import "github.com/prathamisonline/multiseller-ecom-sub001/internal/session"

type User struct {
	ID       string
	Name     string
	Email    string
	Password string
	Role     session.Role
}

// Identity is the public view of u handed to clients.
func (u User) Identity() session.Identity {
	return session.Identity{
		ID:          u.ID,
		DisplayName: u.Name,
		Email:       u.Email,
		Role:        u.Role,
	}
}
