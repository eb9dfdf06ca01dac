// Package auth holds the static role model of the MIND platform: who a user
// is, which dashboard pages their role may open, and the session tokens that
// carry that role between requests.
package auth

import "fmt"

// Role is one of the four platform roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleFaculty   Role = "faculty"
	RoleStudent   Role = "student"
)

// Page identifies one role-gated dashboard page.
type Page string

const (
	PageAdmin     Page = "admin"
	PageDeveloper Page = "developer"
	PageFaculty   Page = "faculty"
	PageStudent   Page = "student"
	PageHome      Page = "home"
)

// ParseRole validates a role string from configuration or a token claim.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleDeveloper, RoleFaculty, RoleStudent:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// CanAccess reports whether role may open page. Admins see everything;
// every other role sees its own page plus the home page.
func CanAccess(role Role, page Page) bool {
	if role == RoleAdmin {
		return true
	}
	if page == PageHome {
		return true
	}
	switch role {
	case RoleDeveloper:
		return page == PageDeveloper
	case RoleFaculty:
		return page == PageFaculty
	case RoleStudent:
		return page == PageStudent
	default:
		return false
	}
}
