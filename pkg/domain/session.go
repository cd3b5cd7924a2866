package domain

// Principal is the identity type a credential belongs to.
type Principal int

const (
	PrincipalUser Principal = iota
	PrincipalAdmin
)

// Principals lists every principal, in the order their namespaces are cleared.
var Principals = []Principal{PrincipalUser, PrincipalAdmin}

func (p Principal) String() string {
	switch p {
	case PrincipalUser:
		return "user"
	case PrincipalAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Namespace returns the storage namespace the principal's credentials live under.
func (p Principal) Namespace() string {
	return p.String()
}

// Credentials is a bearer token paired with the email it was issued for.
// The two halves are written and cleared together.
type Credentials struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// Valid reports whether both halves of the pair are present.
func (c Credentials) Valid() bool {
	return c.Token != "" && c.Email != ""
}

// SessionState is the lifecycle state of the user session.
type SessionState int

const (
	StateAnonymous SessionState = iota
	StateAuthenticated
	StateBannedOut
)

func (s SessionState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateBannedOut:
		return "banned"
	default:
		return "anonymous"
	}
}

// AuthResult is the response of the user and admin login endpoints.
type AuthResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
	User    *struct {
		Email string `json:"email"`
	} `json:"user,omitempty"`
}
