package paper

import "time"

// Paper is one arXiv candidate document as it flows through the pipeline.
type Paper struct {
	ID              string     `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Authors         []string   `json:"authors"`
	Summary         string     `json:"summary" db:"summary"`
	Published       time.Time  `json:"published" db:"published"`
	Link            string     `json:"link" db:"link"`
	PDFLink         string     `json:"pdf_link,omitempty" db:"pdf_link"`
	Categories      []string   `json:"categories"`
	RelevanceScore  *float64   `json:"relevance_score,omitempty" db:"relevance_score"`
	RelevanceReason string     `json:"relevance_reason,omitempty" db:"relevance_reason"`
	Sent            bool       `json:"sent" db:"sent"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	LastAccessed    *time.Time `json:"last_accessed,omitempty" db:"last_accessed"`
}

// SetScore records a classification outcome on the paper.
func (p *Paper) SetScore(score float64, reason string) {
	p.RelevanceScore = &score
	p.RelevanceReason = reason
}
