package model

// Option is one entry of a selector's option list.
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Institution is one directory entry: a university and its departments in
// the order the directory serves them.
type Institution struct {
	Name        string   `json:"name"`
	Departments []string `json:"departments"`
}

// ResultItem is one ranked tutor returned by the recommendation backend.
//
// MatchScore is never "missing" on this side of the gateway: an absent
// match_score decodes to 0.
type ResultItem struct {
	TutorID    string  `json:"tutor_id"`
	Name       string  `json:"name"`
	University string  `json:"university"`
	Department string  `json:"department"`
	DetailURL  string  `json:"url"`
	MatchScore float64 `json:"match_score"`
}

// TutorDetail is the review panel content for one expanded result item.
// The zero value is the "no public reviews" detail.
type TutorDetail struct {
	TutorID         string   `json:"tutor_id"`
	Name            string   `json:"name"`
	University      string   `json:"university"`
	Department      string   `json:"department"`
	ReviewSentences []string `json:"review_sentences"`
}

// ReviewSubmission is the body of a user's review of a tutor.
type ReviewSubmission struct {
	Name           string `json:"name" validate:"notblank"`
	University     string `json:"university" validate:"notblank"`
	Department     string `json:"department" validate:"notblank"`
	Academic       string `json:"academic" validate:"notblank"`
	Responsibility string `json:"responsibility" validate:"notblank"`
	Character      string `json:"character" validate:"notblank"`
	UserID         string `json:"user_id" validate:"notblank"`
}

// ProfessorRecord is an advisor directory entry maintained by administrators.
type ProfessorRecord struct {
	Name           string `json:"name" validate:"notblank"`
	University     string `json:"university" validate:"notblank"`
	Department     string `json:"department" validate:"notblank"`
	Academic       string `json:"academic" validate:"notblank"`
	Responsibility string `json:"responsibility" validate:"notblank"`
	Character      string `json:"character" validate:"notblank"`
	ProfessorURL   string `json:"professor_url" validate:"notblank,url"`
}
