package models

// City is a catalog entry referenced by restaurant addresses.
type City struct {
	ID      int64  `json:"id" yaml:"-"`
	ZipCode string `json:"zip_code" yaml:"zip_code"`
	Name    string `json:"name" yaml:"name"`
}

// IsPersistent reports whether the city has been assigned an identifier.
func (c *City) IsPersistent() bool {
	return c != nil && c.ID > 0
}
