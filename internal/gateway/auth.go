package gateway

import (
	"context"
	"net/http"

	"github.com/sakif/mentorlink/internal/model"
)

// AuthGateway verifies credentials and manages backend accounts.
type AuthGateway struct {
	c *Client
}

func NewAuthGateway(c *Client) *AuthGateway {
	return &AuthGateway{c: c}
}

// LoginResult is what a successful login established.
type LoginResult struct {
	Identity string
	Role     model.Role
	Message  string
}

type credentials struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Role    string `json:"role"`
	UserID  string `json:"user_id"`
	AdminID string `json:"admin_id"`
}

// Login checks identity/password with the auth backend.
//
// Both login forms post to the same endpoint. An admin login is always
// granted the admin role and reads its id from admin_id; a user login takes
// the role the backend reports (default user). If the backend omits the id
// the submitted one is used.
func (g *AuthGateway) Login(ctx context.Context, identity, password string, asAdmin bool) (LoginResult, error) {
	var resp loginResponse
	err := g.c.call(ctx, "auth", "login", http.MethodPost, "/auth/login",
		credentials{UserID: identity, Password: password}, &resp)
	if err != nil {
		if asAdmin {
			return LoginResult{}, failure(err, "admin login failed")
		}
		return LoginResult{}, failure(err, "login failed, check your credentials")
	}

	res := LoginResult{Message: resp.Message}
	if asAdmin {
		res.Role = model.RoleAdmin
		res.Identity = firstNonEmpty(resp.AdminID, resp.UserID, identity)
	} else {
		res.Role = model.ParseRole(resp.Role)
		res.Identity = firstNonEmpty(resp.UserID, identity)
	}
	return res, nil
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates a user account and returns the backend's confirmation.
func (g *AuthGateway) Register(ctx context.Context, identity, password string) (string, error) {
	var resp messageResponse
	err := g.c.call(ctx, "auth", "register", http.MethodPost, "/auth/register",
		credentials{UserID: identity, Password: password}, &resp)
	if err != nil {
		return "", failure(err, "registration failed, please try again")
	}
	return resp.Message, nil
}

// Logout tells the backend the session ended.
func (g *AuthGateway) Logout(ctx context.Context) error {
	if err := g.c.call(ctx, "auth", "logout", http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return failure(err, "logout failed")
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
