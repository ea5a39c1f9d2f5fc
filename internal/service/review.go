package service

import (
	"context"
	"log/slog"

	"github.com/sakif/mentorlink/internal/apperror"
	"github.com/sakif/mentorlink/internal/model"
)

// ReviewBackend submits reviews.
type ReviewBackend interface {
	Submit(ctx context.Context, r model.ReviewSubmission) (string, error)
}

// ReviewService validates and submits tutor reviews.
type ReviewService struct {
	backend ReviewBackend
	logger  *slog.Logger
}

func NewReviewService(backend ReviewBackend, logger *slog.Logger) *ReviewService {
	return &ReviewService{backend: backend, logger: logger}
}

// Submit sends a review written by userID. The author always comes from the
// session, never from the form.
func (s *ReviewService) Submit(ctx context.Context, userID string, r model.ReviewSubmission) (string, error) {
	if userID == "" {
		return "", apperror.Unauthorized("please log in before submitting a review")
	}
	r.UserID = userID
	trimAll(&r.Name, &r.University, &r.Department, &r.Academic, &r.Responsibility, &r.Character)
	if err := validateStruct(r); err != nil {
		return "", err
	}

	msg, err := s.backend.Submit(ctx, r)
	if err != nil {
		return "", err
	}
	s.logger.Info("review submitted", slog.String("user_id", userID), slog.String("tutor", r.Name))
	if msg == "" {
		msg = "review submitted"
	}
	return msg, nil
}
