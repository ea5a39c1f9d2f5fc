package gateway

import (
	"context"
	"net/http"

	"github.com/sakif/mentorlink/internal/model"
)

// ReviewGateway reads tutor reviews and submits new ones.
type ReviewGateway struct {
	c *Client
}

func NewReviewGateway(c *Client) *ReviewGateway {
	return &ReviewGateway{c: c}
}

type tutorRequest struct {
	TutorID string `json:"tutor_id"`
}

// TutorDetail fetches the profile and review sentences of one tutor.
func (g *ReviewGateway) TutorDetail(ctx context.Context, tutorID string) (model.TutorDetail, error) {
	var detail model.TutorDetail
	err := g.c.call(ctx, "review", "detail", http.MethodPost, "/user/show_information",
		tutorRequest{TutorID: tutorID}, &detail)
	if err != nil {
		return model.TutorDetail{}, failure(err, "failed to load tutor reviews, please try again")
	}
	return detail, nil
}

// Submit stores a review and returns the backend's confirmation.
func (g *ReviewGateway) Submit(ctx context.Context, r model.ReviewSubmission) (string, error) {
	var resp messageResponse
	err := g.c.call(ctx, "review", "submit", http.MethodPost, "/user/submit_review", r, &resp)
	if err != nil {
		return "", failure(err, "failed to submit the review, please try again")
	}
	return resp.Message, nil
}
