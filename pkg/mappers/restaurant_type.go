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

// RestaurantTypeMapper persists restaurant types through an identity cache.
type RestaurantTypeMapper interface {
	Mapper[models.RestaurantType]
	// ResetCache forgets every cached type.
	ResetCache()
}

type restaurantTypeMapper struct {
	table
	seq    sequence.Source
	cache  cache.Store[models.RestaurantType]
	logger *zap.Logger
}

// NewRestaurantTypeMapper creates a RestaurantTypeMapper. Pass cache.Disabled to
// always read from the database.
func NewRestaurantTypeMapper(seq sequence.Source, store cache.Store[models.RestaurantType], logger *zap.Logger) RestaurantTypeMapper {
	return &restaurantTypeMapper{
		table:  table{name: "restaurant_types", entity: "restaurant type", sequence: sequence.RestaurantTypes},
		seq:    seq,
		cache:  store,
		logger: logger.Named("restaurant-type-mapper"),
	}
}

var _ RestaurantTypeMapper = (*restaurantTypeMapper)(nil)

const restaurantTypeColumns = `id, label, COALESCE(description, '')`

func (m *restaurantTypeMapper) FindByID(ctx context.Context, id int64) (*models.RestaurantType, error) {
	if t, ok := m.cache.Get(id); ok {
		m.logger.Debug("Cache hit", zap.Int64("type_id", id))
		return t, nil
	}

	var t models.RestaurantType
	found, err := queryRow(ctx,
		`SELECT `+restaurantTypeColumns+` FROM restaurant_types WHERE id = $1`,
		[]any{id}, &t.ID, &t.Label, &t.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to find restaurant type %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}

	m.cache.Put(t.ID, &t)
	return &t, nil
}

// FindAll overwrites the cache entry of every returned type.
func (m *restaurantTypeMapper) FindAll(ctx context.Context) ([]*models.RestaurantType, error) {
	types, err := collect(ctx, `SELECT `+restaurantTypeColumns+` FROM restaurant_types ORDER BY id`, nil,
		func(rows pgx.Rows) (*models.RestaurantType, error) {
			var t models.RestaurantType
			err := rows.Scan(&t.ID, &t.Label, &t.Description)
			return &t, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurant types: %w", err)
	}

	for _, t := range types {
		m.cache.Put(t.ID, t)
	}
	return types, nil
}

func (m *restaurantTypeMapper) Create(ctx context.Context, t *models.RestaurantType) (*models.RestaurantType, error) {
	if t == nil {
		return nil, nilEntity(m.entity)
	}
	if t.IsPersistent() {
		return nil, alreadyPersistent(m.entity, t.ID)
	}

	id, err := m.nextID(ctx, m.seq)
	if err != nil {
		return nil, err
	}
	if err := m.execOne(ctx, "create", id,
		`INSERT INTO restaurant_types (id, label, description) VALUES ($1, $2, NULLIF($3, ''))`,
		id, t.Label, t.Description); err != nil {
		return nil, err
	}

	t.ID = id
	m.cache.Put(id, t)
	return t, nil
}

func (m *restaurantTypeMapper) Update(ctx context.Context, t *models.RestaurantType) error {
	if !t.IsPersistent() {
		return notPersistent(m.entity)
	}
	if err := m.execOne(ctx, "update", t.ID,
		`UPDATE restaurant_types SET label = $2, description = NULLIF($3, '') WHERE id = $1`,
		t.ID, t.Label, t.Description); err != nil {
		return err
	}

	m.cache.Put(t.ID, t)
	return nil
}

func (m *restaurantTypeMapper) Delete(ctx context.Context, t *models.RestaurantType) error {
	if !t.IsPersistent() {
		return notPersistent(m.entity)
	}
	return m.DeleteByID(ctx, t.ID)
}

// DeleteByID evicts the cache entry even when the delete fails.
func (m *restaurantTypeMapper) DeleteByID(ctx context.Context, id int64) error {
	m.cache.Remove(id)
	return m.deleteByID(ctx, id)
}

func (m *restaurantTypeMapper) Exists(ctx context.Context, id int64) (bool, error) {
	return m.exists(ctx, id)
}

func (m *restaurantTypeMapper) Count(ctx context.Context) (int64, error) {
	return m.count(ctx)
}

func (m *restaurantTypeMapper) ResetCache() {
	m.cache.Reset()
}
