package gateway

import (
	"context"
	"net/http"

	"github.com/sakif/mentorlink/internal/model"
)

// RecommendationGateway asks the matching backend for ranked tutors.
type RecommendationGateway struct {
	c *Client
}

func NewRecommendationGateway(c *Client) *RecommendationGateway {
	return &RecommendationGateway{c: c}
}

type recommendRequest struct {
	Query      string `json:"query"`
	University string `json:"university"`
	Department string `json:"department"`
}

type recommendResponse struct {
	Results []model.ResultItem `json:"recommend_result"`
}

// Recommend runs a free-text query scoped by institution and department
// names ("All" means unscoped). A missing result list is an empty one.
func (g *RecommendationGateway) Recommend(ctx context.Context, query, institution, department string) ([]model.ResultItem, error) {
	var resp recommendResponse
	err := g.c.call(ctx, "recommendation", "query", http.MethodPost, "/user/get_recommendations",
		recommendRequest{Query: query, University: institution, Department: department}, &resp)
	if err != nil {
		return nil, failure(err, "failed to get recommendations, please try again later")
	}
	if resp.Results == nil {
		return []model.ResultItem{}, nil
	}
	return resp.Results, nil
}
