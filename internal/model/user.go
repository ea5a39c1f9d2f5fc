package model

// User is a platform account as listed by the admin backend.
//
// WHY ReviewAllowed IS A STRING:
// The admin backend answers with the Python literals "True" / "False" and
// expects the same literals back when toggling. Keeping the raw string
// avoids a lossy round trip; use CanReview for logic.
type User struct {
	UserID        string `json:"user_id"`
	Role          string `json:"role"`
	ReviewAllowed string `json:"review_allowed"`
}

// CanReview reports whether the user may submit reviews.
func (u User) CanReview() bool {
	return u.ReviewAllowed == "True"
}

// Review is one stored review sentence as seen by administrators.
type Review struct {
	SentenceID     string `json:"sentence_id"`
	Name           string `json:"name"`
	University     string `json:"university"`
	Department     string `json:"department"`
	ReviewSentence string `json:"review_sentence"`
}

// UserProfile is a user together with the reviews they wrote.
type UserProfile struct {
	UserID        string   `json:"user_id"`
	Role          string   `json:"role"`
	ReviewAllowed string   `json:"review_allowed"`
	Reviews       []Review `json:"reviews"`
}

// PlatformStats is the admin monitor payload.
type PlatformStats struct {
	MemoryUsage string `json:"memory_usage"`
	ReviewCount int    `json:"review_count"`
	Schools     struct {
		Departments int `json:"departments"`
		Total       int `json:"total"`
	} `json:"schools"`
	UserCount int `json:"user_count"`
}
