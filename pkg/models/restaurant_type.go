package models

// RestaurantType categorises restaurants (pizzeria, brasserie, ...).
type RestaurantType struct {
	ID          int64  `json:"id" yaml:"-"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

func (t *RestaurantType) IsPersistent() bool {
	return t != nil && t.ID > 0
}
