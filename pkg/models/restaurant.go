package models

// Localisation is a street address inside a city.
type Localisation struct {
	Street string `json:"street"`
	City   *City  `json:"city"`
}

// Restaurant is the central entity of the guide. Evaluations reference their
// restaurant; the restaurant does not hold them.
type Restaurant struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Website     string          `json:"website"`
	Address     Localisation    `json:"address"`
	Type        *RestaurantType `json:"type"`
}

func (r *Restaurant) IsPersistent() bool {
	return r != nil && r.ID > 0
}
