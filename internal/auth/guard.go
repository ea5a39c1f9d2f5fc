package auth

import (
	"github.com/sakif/mentorlink/internal/model"
)

// Paths the guard redirects to.
const (
	LoginPath = "/login"
	UserHome  = "/user"
	AdminHome = "/admin"
)

// Decision is the outcome of a guard check. When Allow is false, Redirect
// holds the path the browser should be sent to.
type Decision struct {
	Allow    bool
	Redirect string
}

// Authorize decides whether rec may open a view that requires the given role.
// RoleNone means any authenticated role is enough.
//
// DECISION TABLE:
//
//	not authenticated               → redirect /login
//	required set, role differs      → redirect to the caller's own home
//	otherwise                       → allow
//
// Authorize is pure: no I/O, no logging. The middleware does the side effects.
func Authorize(rec model.SessionRecord, required model.Role) Decision {
	if !rec.Authenticated {
		return Decision{Redirect: LoginPath}
	}
	if required != model.RoleNone && rec.Role != required {
		return Decision{Redirect: HomePathFor(rec.Role)}
	}
	return Decision{Allow: true}
}

// HomePathFor returns the landing view for a role.
func HomePathFor(role model.Role) string {
	if role == model.RoleAdmin {
		return AdminHome
	}
	return UserHome
}
