package models

import "time"

// VisitDay reduces t to its calendar date, read in t's own location, as
// midnight UTC. Visit dates are stored as dates, so the mappers normalize
// VisitDate with it before writing and read it back in the same form.
func VisitDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BasicEvaluation is a like or dislike left by an anonymous visitor.
type BasicEvaluation struct {
	ID         int64       `json:"id"`
	VisitDate  time.Time   `json:"visit_date"`
	Likes      bool        `json:"likes"`
	IPAddress  string      `json:"ip_address"`
	Restaurant *Restaurant `json:"restaurant"`
}

func (e *BasicEvaluation) IsPersistent() bool {
	return e != nil && e.ID > 0
}

// CompleteEvaluation is a comment with one grade per evaluation criteria.
// It owns its grades: they are written and deleted with it.
type CompleteEvaluation struct {
	ID         int64       `json:"id"`
	VisitDate  time.Time   `json:"visit_date"`
	Comment    string      `json:"comment"`
	Username   string      `json:"username"`
	Restaurant *Restaurant `json:"restaurant"`
	Grades     []*Grade    `json:"grades"`
}

func (e *CompleteEvaluation) IsPersistent() bool {
	return e != nil && e.ID > 0
}

// AddGrade attaches a grade to the evaluation and sets its back reference.
func (e *CompleteEvaluation) AddGrade(g *Grade) {
	g.Evaluation = e
	e.Grades = append(e.Grades, g)
}

// Grade is the score given to one criteria inside a complete evaluation.
type Grade struct {
	ID         int64               `json:"id"`
	Score      int                 `json:"score"`
	Evaluation *CompleteEvaluation `json:"-"`
	Criteria   *EvaluationCriteria `json:"criteria"`
}

func (g *Grade) IsPersistent() bool {
	return g != nil && g.ID > 0
}

// Score bounds of a grade, inclusive.
const (
	MinScore = 1
	MaxScore = 5
)
