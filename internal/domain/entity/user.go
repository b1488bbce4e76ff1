package entity

import "strings"

// User is a member of a company as seen by the org directory.
type User struct {
	ID         int64  `json:"id"`
	CompanyID  int64  `json:"company_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	ManagerID  int64  `json:"manager_id,omitempty"`
	LarkOpenID string `json:"-"`
}

// FullName returns "First Last", falling back to the email.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID    int64
	CompanyID int64
	Role      string
	Name      string
}

// IsAdmin reports whether the caller is a company admin.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanApprove reports whether the caller's role may act on approval requests.
func (p Principal) CanApprove() bool {
	return p.Role == RoleAdmin || p.Role == RoleManager
}
