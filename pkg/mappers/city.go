package mappers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hearc-ig/guideresto/pkg/models"
	"github.com/hearc-ig/guideresto/pkg/sequence"
)

// CityMapper persists cities.
type CityMapper interface {
	Mapper[models.City]
}

type cityMapper struct {
	table
	seq    sequence.Source
	logger *zap.Logger
}

// NewCityMapper creates a CityMapper. Cities are not cached.
func NewCityMapper(seq sequence.Source, logger *zap.Logger) CityMapper {
	return &cityMapper{
		table:  table{name: "cities", entity: "city", sequence: sequence.Cities},
		seq:    seq,
		logger: logger.Named("city-mapper"),
	}
}

var _ CityMapper = (*cityMapper)(nil)

func (m *cityMapper) FindByID(ctx context.Context, id int64) (*models.City, error) {
	var c models.City
	found, err := queryRow(ctx,
		`SELECT id, zip_code, name FROM cities WHERE id = $1`,
		[]any{id}, &c.ID, &c.ZipCode, &c.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to find city %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

func (m *cityMapper) FindAll(ctx context.Context) ([]*models.City, error) {
	cities, err := collect(ctx, `SELECT id, zip_code, name FROM cities ORDER BY id`, nil,
		func(rows pgx.Rows) (*models.City, error) {
			var c models.City
			err := rows.Scan(&c.ID, &c.ZipCode, &c.Name)
			return &c, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return cities, nil
}

func (m *cityMapper) Create(ctx context.Context, c *models.City) (*models.City, error) {
	if c == nil {
		return nil, nilEntity(m.entity)
	}
	if c.IsPersistent() {
		return nil, alreadyPersistent(m.entity, c.ID)
	}

	id, err := m.nextID(ctx, m.seq)
	if err != nil {
		return nil, err
	}
	if err := m.execOne(ctx, "create", id,
		`INSERT INTO cities (id, zip_code, name) VALUES ($1, $2, $3)`,
		id, c.ZipCode, c.Name); err != nil {
		return nil, err
	}

	c.ID = id
	m.logger.Debug("Created city", zap.Int64("city_id", id))
	return c, nil
}

func (m *cityMapper) Update(ctx context.Context, c *models.City) error {
	if !c.IsPersistent() {
		return notPersistent(m.entity)
	}
	return m.execOne(ctx, "update", c.ID,
		`UPDATE cities SET zip_code = $2, name = $3 WHERE id = $1`,
		c.ID, c.ZipCode, c.Name)
}

func (m *cityMapper) Delete(ctx context.Context, c *models.City) error {
	if !c.IsPersistent() {
		return notPersistent(m.entity)
	}
	return m.DeleteByID(ctx, c.ID)
}

func (m *cityMapper) DeleteByID(ctx context.Context, id int64) error {
	return m.deleteByID(ctx, id)
}

func (m *cityMapper) Exists(ctx context.Context, id int64) (bool, error) {
	return m.exists(ctx, id)
}

func (m *cityMapper) Count(ctx context.Context) (int64, error) {
	return m.count(ctx)
}
