package session

type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleSeller, RoleAdmin:
		return true
	default:
		return false
	}
}

type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
}

// Snapshot is the persisted and observable form of a session.
type Snapshot struct {
	Identity        *Identity `json:"user"`
	Token           string    `json:"token"`
	IsAuthenticated bool      `json:"isAuthenticated"`
}

// Consistent reports whether IsAuthenticated agrees with the presence of identity and token.
func (s Snapshot) Consistent() bool {
	return s.IsAuthenticated == (s.Identity != nil && s.Token != "")
}

// Event is delivered to subscribers when the authentication state changes.
type Event struct {
	Authenticated bool
	Identity      *Identity
	Token         string
}
