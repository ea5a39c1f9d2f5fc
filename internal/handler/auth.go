package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/mentorlink/internal/auth"
	"github.com/sakif/mentorlink/internal/model"
	"github.com/sakif/mentorlink/internal/service"
)

// Authenticator is the part of service.AuthService the auth pages use.
type Authenticator interface {
	Login(ctx context.Context, in service.LoginInput) (model.SessionRecord, error)
	Register(ctx context.Context, in service.RegisterInput) (string, error)
	Logout(ctx context.Context) error
	RememberedUser(ctx context.Context) string
}

// AuthHandler serves the login, registration and logout flows.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLoginPage / HandleLogin       → GET and POST /login
//   - HandleRegisterPage / HandleRegister → GET and POST /register
//   - HandleLogout                        → POST /logout
//   - HandleHealth                        → GET /healthz (JSON)
//
// DEPENDENCY CHAIN:
//   - auth     Authenticator      → credentials, session, remembered identity
//   - sessions auth.SessionReader → who is logged in right now
//   - onLogout func()             → drops per-view state (workspaces)
type AuthHandler struct {
	auth     Authenticator
	sessions auth.SessionReader
	pages    *Renderer
	onLogout func()
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. onLogout may be nil.
func NewAuthHandler(a Authenticator, sessions auth.SessionReader, pages *Renderer, onLogout func(), logger *slog.Logger) *AuthHandler {
	if onLogout == nil {
		onLogout = func() {}
	}
	return &AuthHandler{
		auth:     a,
		sessions: sessions,
		pages:    pages,
		onLogout: onLogout,
		logger:   logger,
	}
}

type loginPage struct {
	layout
	UserID   string
	Remember bool
	AsAdmin  bool
}

// HandleLoginPage shows the login form.
// An already authenticated session goes straight to its home view.
//
// HTTP: GET /login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	rec := h.sessions.Current()
	if rec.Authenticated {
		seeOther(w, r, auth.HomePathFor(rec.Role))
		return
	}

	remembered := h.auth.RememberedUser(r.Context())
	h.pages.render(w, http.StatusOK, pageLogin, loginPage{
		layout:   layout{Title: "Log in", Session: rec},
		UserID:   remembered,
		Remember: remembered != "",
	})
}

// HandleLogin verifies the submitted credentials.
// Success redirects to the role's home view; failure re-renders the form
// with the message and keeps everything but the password.
//
// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	in := service.LoginInput{
		UserID:   r.PostFormValue("user_id"),
		Password: r.PostFormValue("password"),
		AsAdmin:  checked(r.PostFormValue("as_admin")),
		Remember: checked(r.PostFormValue("remember")),
	}

	rec, err := h.auth.Login(r.Context(), in)
	if err != nil {
		h.pages.render(w, statusFor(err), pageLogin, loginPage{
			layout:   layout{Title: "Log in", Session: h.sessions.Current(), Error: messageFor(err)},
			UserID:   in.UserID,
			Remember: in.Remember,
			AsAdmin:  in.AsAdmin,
		})
		return
	}

	seeOther(w, r, auth.HomePathFor(rec.Role))
}

type registerPage struct {
	layout
	UserID     string
	Registered bool
}

// HandleRegisterPage shows the registration form.
//
// HTTP: GET /register
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, http.StatusOK, pageRegister, registerPage{
		layout: layout{Title: "Register", Session: h.sessions.Current()},
	})
}

// HandleRegister creates an account. Success shows a confirmation with a
// link to /login; the user is not logged in automatically.
//
// HTTP: POST /register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	in := service.RegisterInput{
		UserID:          r.PostFormValue("user_id"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}

	msg, err := h.auth.Register(r.Context(), in)
	if err != nil {
		h.pages.render(w, statusFor(err), pageRegister, registerPage{
			layout: layout{Title: "Register", Session: h.sessions.Current(), Error: messageFor(err)},
			UserID: in.UserID,
		})
		return
	}

	h.pages.render(w, http.StatusOK, pageRegister, registerPage{
		layout:     layout{Title: "Register", Session: h.sessions.Current(), Notice: msg},
		UserID:     in.UserID,
		Registered: true,
	})
}

// HandleLogout ends the session. The local logout always happens, so even
// when the store reports a failure the user ends up on the login page
// unauthenticated.
//
// HTTP: POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		h.logger.Error("logout did not clear the stored session", slog.String("error", err.Error()))
	}
	h.onLogout()
	seeOther(w, r, auth.LoginPath)
}

type healthResponse struct {
	Status        string     `json:"status"`
	Authenticated bool       `json:"authenticated"`
	Role          model.Role `json:"role,omitempty"`
}

// HandleHealth reports liveness and the session state (never the identity).
//
// HTTP: GET /healthz
func (h *AuthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	rec := h.sessions.Current()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Authenticated: rec.Authenticated,
		Role:          rec.Role,
	})
}

// checked reports whether an HTML checkbox value means "ticked".
func checked(v string) bool {
	switch v {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
