package domain

// AuthorityPrefix is prepended to every role name to form an authority.
const AuthorityPrefix = "ROLE_"

// Principal is an authenticated identity with its granted authorities.
// It is produced once per login and carried inside the access token.
type Principal struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

// NewPrincipal derives one authority per role.
func NewPrincipal(u *User, roles []Role) *Principal {
	authorities := make([]string, 0, len(roles))
	for _, r := range roles {
		authorities = append(authorities, AuthorityPrefix+r.Name)
	}
	return &Principal{
		UserID:      u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Authorities: authorities,
	}
}

// HasAuthority reports whether the principal was granted the exact authority.
func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// Authorize reports whether p holds requiredRole. A nil principal is never
// authorized.
func Authorize(p *Principal, requiredRole string) bool {
	return p.HasAuthority(AuthorityPrefix + requiredRole)
}
