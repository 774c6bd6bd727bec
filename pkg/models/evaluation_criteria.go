package models

// EvaluationCriteria is a catalog entry graded by complete evaluations
// (service, cuisine, setting, ...).
type EvaluationCriteria struct {
	ID          int64  `json:"id" yaml:"-"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

func (c *EvaluationCriteria) IsPersistent() bool {
	return c != nil && c.ID > 0
}
