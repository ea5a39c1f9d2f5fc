package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sakif/mentorlink/internal/apperror"
	"github.com/sakif/mentorlink/internal/model"
)

// AdminGateway covers the administrator backend: accounts, reviews, advisor
// records and platform statistics.
type AdminGateway struct {
	c *Client
}

func NewAdminGateway(c *Client) *AdminGateway {
	return &AdminGateway{c: c}
}

type usersResponse struct {
	Success bool         `json:"success"`
	Data    []model.User `json:"data"`
	Total   int          `json:"total"`
	Error   string       `json:"error"`
}

// Users lists every account.
func (g *AdminGateway) Users(ctx context.Context) ([]model.User, error) {
	var resp usersResponse
	if err := g.c.call(ctx, "admin", "users", http.MethodGet, "/admin/get_all_users", nil, &resp); err != nil {
		return nil, failure(err, "failed to load users, please try again later")
	}
	if !resp.Success {
		return nil, apperror.Gateway(firstNonEmpty(resp.Error, "failed to load users"))
	}
	return resp.Data, nil
}

type togglePermissionRequest struct {
	TargetUser string `json:"target_user"`
	Enable     string `json:"enable"`
}

// SetReviewPermission enables or disables review submission for a user.
//
// This endpoint has its own status mapping:
//
//	400      → payload error, else "invalid request"
//	403      → "permission denied"
//	500      → "server error: " + the payload text after its first colon
//	other    → payload error, else "request failed: <status>"
//	no reply → network hint
func (g *AdminGateway) SetReviewPermission(ctx context.Context, userID string, enable bool) (string, error) {
	var resp messageResponse
	err := g.c.call(ctx, "admin", "toggle_permission", http.MethodPost, "/admin/toggle_permission",
		togglePermissionRequest{TargetUser: userID, Enable: boolLiteral(enable)}, &resp)
	if err == nil {
		return resp.Message, nil
	}

	text := textOf(err)
	switch status := statusOf(err); status {
	case 0:
		return "", apperror.Gateway("no response, check the network connection")
	case http.StatusBadRequest:
		return "", apperror.Gateway(firstNonEmpty(text, "invalid request"))
	case http.StatusForbidden:
		return "", apperror.Forbidden("permission denied")
	case http.StatusInternalServerError:
		detail := "unknown error"
		if _, after, ok := strings.Cut(text, ":"); ok && strings.TrimSpace(after) != "" {
			detail = strings.TrimSpace(after)
		}
		return "", apperror.Gateway("server error: " + detail)
	default:
		return "", apperror.Gateway(firstNonEmpty(text, fmt.Sprintf("request failed: %d", status)))
	}
}

type reviewsResponse struct {
	Data []model.Review `json:"data"`
}

// Reviews lists every stored review sentence.
func (g *AdminGateway) Reviews(ctx context.Context) ([]model.Review, error) {
	var resp reviewsResponse
	if err := g.c.call(ctx, "admin", "reviews", http.MethodGet, "/admin/get_all_reviews", nil, &resp); err != nil {
		return nil, failure(err, "failed to load reviews")
	}
	return resp.Data, nil
}

type deleteReviewRequest struct {
	SentenceID string `json:"sentence_id"`
}

// DeleteReview removes one review sentence.
func (g *AdminGateway) DeleteReview(ctx context.Context, sentenceID string) (string, error) {
	var resp messageResponse
	err := g.c.call(ctx, "admin", "delete_review", http.MethodPost, "/admin/delete_review",
		deleteReviewRequest{SentenceID: sentenceID}, &resp)
	if err != nil {
		return "", failure(err, "failed to delete the review")
	}
	return resp.Message, nil
}

type userInfoRequest struct {
	UserID string `json:"user_id"`
}

type userInfoResponse struct {
	User model.UserProfile `json:"user"`
}

// UserProfile loads one user together with the reviews they wrote.
func (g *AdminGateway) UserProfile(ctx context.Context, userID string) (model.UserProfile, error) {
	var resp userInfoResponse
	err := g.c.call(ctx, "admin", "user_information", http.MethodPost, "/admin/handle_user_information",
		userInfoRequest{UserID: userID}, &resp)
	if err != nil {
		if statusOf(err) == http.StatusForbidden {
			return model.UserProfile{}, apperror.Forbidden("permission denied, cannot view user information")
		}
		if text := textOf(err); text != "" {
			return model.UserProfile{}, apperror.Gateway("failed to load user data: " + text)
		}
		return model.UserProfile{}, apperror.Gateway("failed to load user data")
	}
	return resp.User, nil
}

// UpdateProfessor creates or updates an advisor record.
func (g *AdminGateway) UpdateProfessor(ctx context.Context, p model.ProfessorRecord) (string, error) {
	var resp messageResponse
	err := g.c.call(ctx, "admin", "professor_update", http.MethodPost, "/admin/professor_update", p, &resp)
	if err != nil {
		return "", failure(err, "failed to save the advisor record, please try again")
	}
	return resp.Message, nil
}

// PlatformStats loads the monitor panel figures.
func (g *AdminGateway) PlatformStats(ctx context.Context) (model.PlatformStats, error) {
	var stats model.PlatformStats
	err := g.c.call(ctx, "admin", "platform_stats", http.MethodGet, "/admin/handle_platform_stats", nil, &stats)
	if err != nil {
		if statusOf(err) == http.StatusForbidden {
			return model.PlatformStats{}, apperror.Forbidden("permission denied")
		}
		return model.PlatformStats{}, failure(err, "failed to load platform statistics")
	}
	return stats, nil
}
