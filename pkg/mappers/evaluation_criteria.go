package mappers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hearc-ig/guideresto/pkg/models"
	"github.com/hearc-ig/guideresto/pkg/sequence"
)

// EvaluationCriteriaMapper persists the criteria graded by complete evaluations.
type EvaluationCriteriaMapper interface {
	Mapper[models.EvaluationCriteria]
}

type evaluationCriteriaMapper struct {
	table
	seq    sequence.Source
	logger *zap.Logger
}

// NewEvaluationCriteriaMapper creates an EvaluationCriteriaMapper. Criteria are not cached.
func NewEvaluationCriteriaMapper(seq sequence.Source, logger *zap.Logger) EvaluationCriteriaMapper {
	return &evaluationCriteriaMapper{
		table:  table{name: "evaluation_criteria", entity: "evaluation criteria", sequence: sequence.EvaluationCriteria},
		seq:    seq,
		logger: logger.Named("criteria-mapper"),
	}
}

var _ EvaluationCriteriaMapper = (*evaluationCriteriaMapper)(nil)

const criteriaColumns = `id, name, COALESCE(description, '')`

func (m *evaluationCriteriaMapper) FindByID(ctx context.Context, id int64) (*models.EvaluationCriteria, error) {
	var c models.EvaluationCriteria
	found, err := queryRow(ctx,
		`SELECT `+criteriaColumns+` FROM evaluation_criteria WHERE id = $1`,
		[]any{id}, &c.ID, &c.Name, &c.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to find evaluation criteria %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

func (m *evaluationCriteriaMapper) FindAll(ctx context.Context) ([]*models.EvaluationCriteria, error) {
	all, err := collect(ctx, `SELECT `+criteriaColumns+` FROM evaluation_criteria ORDER BY id`, nil,
		func(rows pgx.Rows) (*models.EvaluationCriteria, error) {
			var c models.EvaluationCriteria
			err := rows.Scan(&c.ID, &c.Name, &c.Description)
			return &c, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluation criteria: %w", err)
	}
	return all, nil
}

func (m *evaluationCriteriaMapper) Create(ctx context.Context, c *models.EvaluationCriteria) (*models.EvaluationCriteria, error) {
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
		`INSERT INTO evaluation_criteria (id, name, description) VALUES ($1, $2, NULLIF($3, ''))`,
		id, c.Name, c.Description); err != nil {
		return nil, err
	}

	c.ID = id
	m.logger.Debug("Created evaluation criteria", zap.Int64("criteria_id", id))
	return c, nil
}

func (m *evaluationCriteriaMapper) Update(ctx context.Context, c *models.EvaluationCriteria) error {
	if !c.IsPersistent() {
		return notPersistent(m.entity)
	}
	return m.execOne(ctx, "update", c.ID,
		`UPDATE evaluation_criteria SET name = $2, description = NULLIF($3, '') WHERE id = $1`,
		c.ID, c.Name, c.Description)
}

func (m *evaluationCriteriaMapper) Delete(ctx context.Context, c *models.EvaluationCriteria) error {
	if !c.IsPersistent() {
		return notPersistent(m.entity)
	}
	return m.DeleteByID(ctx, c.ID)
}

func (m *evaluationCriteriaMapper) DeleteByID(ctx context.Context, id int64) error {
	return m.deleteByID(ctx, id)
}

func (m *evaluationCriteriaMapper) Exists(ctx context.Context, id int64) (bool, error) {
	return m.exists(ctx, id)
}

func (m *evaluationCriteriaMapper) Count(ctx context.Context) (int64, error) {
	return m.count(ctx)
}
