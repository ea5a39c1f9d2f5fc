package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/mentorlink/internal/gateway"
	"github.com/sakif/mentorlink/internal/model"
)

// AuthBackend is the auth gateway as the service sees it.
type AuthBackend interface {
	Login(ctx context.Context, identity, password string, asAdmin bool) (gateway.LoginResult, error)
	Register(ctx context.Context, identity, password string) (string, error)
	Logout(ctx context.Context) error
}

// SessionStore is the write side of the session manager.
type SessionStore interface {
	Current() model.SessionRecord
	Login(ctx context.Context, identity string, role model.Role) error
	Logout(ctx context.Context) error
	Remember(ctx context.Context, identity string) error
	Forget(ctx context.Context) error
	Remembered(ctx context.Context) string
}

// AuthService orchestrates login, registration and logout.
//
//	LoginHandler → AuthService → AuthBackend (credential check)
//	                           ↘ SessionStore (persist the Session Record)
//
// Credentials are verified by the backend before the session changes; the
// session is never touched on a failed login.
type AuthService struct {
	backend  AuthBackend
	sessions SessionStore
	logger   *slog.Logger
}

func NewAuthService(backend AuthBackend, sessions SessionStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
	}
}

// LoginInput is the login form.
type LoginInput struct {
	UserID   string `json:"user_id" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
	AsAdmin  bool   `json:"as_admin"`
	Remember bool   `json:"remember"`
}

// Login verifies credentials and establishes the session.
//
// "Remember me" stores the identity for prefilling the form next time;
// unticking it forgets any previously remembered identity.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (model.SessionRecord, error) {
	trimAll(&in.UserID)
	if err := validateStruct(in); err != nil {
		return model.SessionRecord{}, err
	}

	res, err := s.backend.Login(ctx, in.UserID, in.Password, in.AsAdmin)
	if err != nil {
		s.logger.Info("login rejected", slog.String("user_id", in.UserID), slog.Bool("admin", in.AsAdmin))
		return model.SessionRecord{}, err
	}

	if err := s.sessions.Login(ctx, res.Identity, res.Role); err != nil {
		return model.SessionRecord{}, fmt.Errorf("service/auth: establishing session: %w", err)
	}

	var rememberErr error
	if in.Remember {
		rememberErr = s.sessions.Remember(ctx, in.UserID)
	} else {
		rememberErr = s.sessions.Forget(ctx)
	}
	if rememberErr != nil {
		s.logger.Warn("could not update remembered user", slog.String("error", rememberErr.Error()))
	}

	return s.sessions.Current(), nil
}

// RegisterInput is the registration form.
type RegisterInput struct {
	UserID          string `json:"user_id" validate:"notblank"`
	Password        string `json:"password" validate:"notblank"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

// Register creates an account. A password mismatch is caught here and
// never reaches the backend.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	trimAll(&in.UserID)
	if err := validateStruct(in); err != nil {
		return "", err
	}

	msg, err := s.backend.Register(ctx, in.UserID, in.Password)
	if err != nil {
		return "", err
	}
	s.logger.Info("account registered", slog.String("user_id", in.UserID))
	if msg == "" {
		msg = "registration successful"
	}
	return msg, nil
}

// Logout ends the session. The backend is told on a best-effort basis; the
// local session is cleared whatever it answers.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.backend.Logout(ctx); err != nil {
		s.logger.Warn("backend logout failed", slog.String("error", err.Error()))
	}
	return s.sessions.Logout(ctx)
}

// RememberedUser returns the identity to prefill the login form with.
func (s *AuthService) RememberedUser(ctx context.Context) string {
	return s.sessions.Remembered(ctx)
}
