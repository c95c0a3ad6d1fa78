package domain

import "time"

// Session describes the authenticated caller of a request.
type Session struct {
	UserID    int64
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the session holds the ADMIN role.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
