package auth

import (
	"log/slog"
	"net/http"

	"github.com/sakif/mentorlink/internal/metrics"
	"github.com/sakif/mentorlink/internal/model"
)

// SessionReader is the read side of the session manager. The guard only ever
// looks at a snapshot; it never logs anyone in or out.
type SessionReader interface {
	Current() model.SessionRecord
}

// RequireRole is a middleware that applies Authorize to every request.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler. The new handler "wraps" the original:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	    })
//	}
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
//
// WHY 303 SEE OTHER?
// A guarded POST (e.g. a form submit after the session was cleared in another
// tab) must land on the login page as a GET. 303 tells the browser to switch
// the method; 302 is ambiguous across browsers.
func RequireRole(sessions SessionReader, required model.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	label := string(required)
	if required == model.RoleNone {
		label = "any"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Authorize(sessions.Current(), required)
			if d.Allow {
				metrics.GuardDecisions.WithLabelValues(label, "allow").Inc()
				next.ServeHTTP(w, r)
				return
			}

			outcome := "home"
			if d.Redirect == LoginPath {
				outcome = "login"
			}
			metrics.GuardDecisions.WithLabelValues(label, outcome).Inc()
			logger.Debug("guard redirect",
				slog.String("path", r.URL.Path),
				slog.String("required", label),
				slog.String("to", d.Redirect),
			)
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
		})
	}
}

// Fallback handles every unmatched path. It redirects to the login view
// whatever the session state; an authenticated user is then bounced onward
// by the login page itself.
func Fallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
	}
}
