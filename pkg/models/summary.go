package models

// RestaurantSummary aggregates the evaluations of one restaurant.
type RestaurantSummary struct {
	Restaurant *Restaurant       `json:"restaurant"`
	Likes      int               `json:"likes"`
	Dislikes   int               `json:"dislikes"`
	Comments   int               `json:"comments"`
	Scores     []CriteriaAverage `json:"scores"`
}

// CriteriaAverage is the mean score given to one criteria across comments.
type CriteriaAverage struct {
	Criteria *EvaluationCriteria `json:"criteria"`
	Average  float64             `json:"average"`
	Grades   int                 `json:"grades"`
}
