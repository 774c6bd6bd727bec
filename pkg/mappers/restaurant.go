package mappers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hearc-ig/guideresto/pkg/cache"
	"github.com/hearc-ig/guideresto/pkg/models"
	"github.com/hearc-ig/guideresto/pkg/sequence"
)

// RestaurantMapper persists restaurants through an identity cache and
// resolves their city and type through the catalog mappers.
type RestaurantMapper interface {
	Mapper[models.Restaurant]
	// ResetCache forgets every cached restaurant.
	ResetCache()
}

type restaurantMapper struct {
	table
	seq    sequence.Source
	cache  cache.Store[models.Restaurant]
	cities CityMapper
	types  RestaurantTypeMapper
	logger *zap.Logger
}

// NewRestaurantMapper creates a RestaurantMapper.
func NewRestaurantMapper(
	seq sequence.Source,
	store cache.Store[models.Restaurant],
	cities CityMapper,
	types RestaurantTypeMapper,
	logger *zap.Logger,
) RestaurantMapper {
	return &restaurantMapper{
		table:  table{name: "restaurants", entity: "restaurant", sequence: sequence.Restaurants},
		seq:    seq,
		cache:  store,
		cities: cities,
		types:  types,
		logger: logger.Named("restaurant-mapper"),
	}
}

var _ RestaurantMapper = (*restaurantMapper)(nil)

// restaurantRow is a restaurant as stored, before its references are resolved.
type restaurantRow struct {
	id          int64
	name        string
	street      string
	description string
	website     string
	typeRef     int64
	cityRef     int64
}

const restaurantColumns = `id, name, address, COALESCE(description, ''), COALESCE(website, ''), type_ref, city_ref`

func scanRestaurant(row pgx.Row) (restaurantRow, error) {
	var r restaurantRow
	err := row.Scan(&r.id, &r.name, &r.street, &r.description, &r.website, &r.typeRef, &r.cityRef)
	return r, err
}

func (m *restaurantMapper) FindByID(ctx context.Context, id int64) (*models.Restaurant, error) {
	if r, ok := m.cache.Get(id); ok {
		m.logger.Debug("Cache hit", zap.Int64("restaurant_id", id))
		return r, nil
	}
	m.logger.Debug("Cache miss", zap.Int64("restaurant_id", id))

	var row restaurantRow
	found, err := queryRow(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`,
		[]any{id}, &row.id, &row.name, &row.street, &row.description, &row.website, &row.typeRef, &row.cityRef)
	if err != nil {
		return nil, fmt.Errorf("failed to find restaurant %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}

	r, err := m.resolve(ctx, row)
	if err != nil {
		return nil, err
	}
	m.cache.Put(r.ID, r)
	return r, nil
}

// FindAll overwrites the cache entry of every returned restaurant.
func (m *restaurantMapper) FindAll(ctx context.Context) ([]*models.Restaurant, error) {
	rows, err := collect(ctx, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY id`, nil,
		func(rows pgx.Rows) (restaurantRow, error) { return scanRestaurant(rows) })
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}

	restaurants := make([]*models.Restaurant, 0, len(rows))
	for _, row := range rows {
		r, err := m.resolve(ctx, row)
		if err != nil {
			return nil, err
		}
		m.cache.Put(r.ID, r)
		restaurants = append(restaurants, r)
	}
	return restaurants, nil
}

func (m *restaurantMapper) resolve(ctx context.Context, row restaurantRow) (*models.Restaurant, error) {
	city, err := m.cities.FindByID(ctx, row.cityRef)
	if err != nil {
		return nil, err
	}
	if city == nil {
		return nil, danglingReference(m.entity, row.id, "city", row.cityRef)
	}

	typ, err := m.types.FindByID(ctx, row.typeRef)
	if err != nil {
		return nil, err
	}
	if typ == nil {
		return nil, danglingReference(m.entity, row.id, "restaurant type", row.typeRef)
	}

	return &models.Restaurant{
		ID:          row.id,
		Name:        row.name,
		Description: row.description,
		Website:     row.website,
		Address:     models.Localisation{Street: row.street, City: city},
		Type:        typ,
	}, nil
}

func (m *restaurantMapper) checkReferences(r *models.Restaurant) error {
	if !r.Address.City.IsPersistent() {
		return transientReference(m.entity, "city")
	}
	if !r.Type.IsPersistent() {
		return transientReference(m.entity, "type")
	}
	return nil
}

func (m *restaurantMapper) Create(ctx context.Context, r *models.Restaurant) (*models.Restaurant, error) {
	if r == nil {
		return nil, nilEntity(m.entity)
	}
	if r.IsPersistent() {
		return nil, alreadyPersistent(m.entity, r.ID)
	}
	if err := m.checkReferences(r); err != nil {
		return nil, err
	}

	id, err := m.nextID(ctx, m.seq)
	if err != nil {
		return nil, err
	}
	if err := m.execOne(ctx, "create", id,
		`INSERT INTO restaurants (id, name, address, description, website, type_ref, city_ref)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)`,
		id, r.Name, r.Address.Street, r.Description, r.Website, r.Type.ID, r.Address.City.ID); err != nil {
		return nil, err
	}

	r.ID = id
	m.cache.Put(id, r)
	m.logger.Debug("Created restaurant", zap.Int64("restaurant_id", id), zap.String("name", r.Name))
	return r, nil
}

func (m *restaurantMapper) Update(ctx context.Context, r *models.Restaurant) error {
	if !r.IsPersistent() {
		return notPersistent(m.entity)
	}
	if err := m.checkReferences(r); err != nil {
		return err
	}

	if err := m.execOne(ctx, "update", r.ID,
		`UPDATE restaurants
		SET name = $2, address = $3, description = NULLIF($4, ''), website = NULLIF($5, ''), type_ref = $6, city_ref = $7
		WHERE id = $1`,
		r.ID, r.Name, r.Address.Street, r.Description, r.Website, r.Type.ID, r.Address.City.ID); err != nil {
		return err
	}

	m.cache.Put(r.ID, r)
	return nil
}

func (m *restaurantMapper) Delete(ctx context.Context, r *models.Restaurant) error {
	if !r.IsPersistent() {
		return notPersistent(m.entity)
	}
	return m.DeleteByID(ctx, r.ID)
}

// DeleteByID does not cascade: a restaurant that still has evaluations is
// rejected by the database.
func (m *restaurantMapper) DeleteByID(ctx context.Context, id int64) error {
	m.cache.Remove(id)
	return m.deleteByID(ctx, id)
}

func (m *restaurantMapper) Exists(ctx context.Context, id int64) (bool, error) {
	return m.exists(ctx, id)
}

func (m *restaurantMapper) Count(ctx context.Context) (int64, error) {
	return m.count(ctx)
}

func (m *restaurantMapper) ResetCache() {
	m.cache.Reset()
}
