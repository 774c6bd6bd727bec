package mappers

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hearc-ig/guideresto/pkg/database"
	"github.com/hearc-ig/guideresto/pkg/models"
	"github.com/hearc-ig/guideresto/pkg/sequence"
)

// EvaluationFinder loads a complete evaluation together with its grades.
type EvaluationFinder interface {
	FindByID(ctx context.Context, id int64) (*models.CompleteEvaluation, error)
}

// EvaluationFinderFunc adapts a function to EvaluationFinder.
type EvaluationFinderFunc func(ctx context.Context, id int64) (*models.CompleteEvaluation, error)

func (f EvaluationFinderFunc) FindByID(ctx context.Context, id int64) (*models.CompleteEvaluation, error) {
	return f(ctx, id)
}

// GradeMapper persists the grades owned by complete evaluations.
//
// Grades are always materialized as part of their evaluation: FindByID and
// FindAll load the owning evaluation and return grades from its grade set, so
// a grade and its evaluation always point at each other.
type GradeMapper interface {
	Mapper[models.Grade]
	// FindByEvaluation loads the grades of e. Each grade's Evaluation is e.
	FindByEvaluation(ctx context.Context, e *models.CompleteEvaluation) ([]*models.Grade, error)
	// DeleteByEvaluationID removes every grade of an evaluation and returns how many were removed.
	DeleteByEvaluationID(ctx context.Context, evaluationID int64) (int64, error)
	// DeleteByEvaluationIDExcept removes the grades of an evaluation whose id is not in keep.
	DeleteByEvaluationIDExcept(ctx context.Context, evaluationID int64, keep []int64) (int64, error)
}

type gradeMapper struct {
	table
	seq         sequence.Source
	criteria    EvaluationCriteriaMapper
	evaluations EvaluationFinder
	logger      *zap.Logger
}

// NewGradeMapper creates a GradeMapper.
func NewGradeMapper(
	seq sequence.Source,
	criteria EvaluationCriteriaMapper,
	evaluations EvaluationFinder,
	logger *zap.Logger,
) GradeMapper {
	return &gradeMapper{
		table:       table{name: "grades", entity: "grade", sequence: sequence.Grades},
		seq:         seq,
		criteria:    criteria,
		evaluations: evaluations,
		logger:      logger.Named("grade-mapper"),
	}
}

var _ GradeMapper = (*gradeMapper)(nil)

type gradeRow struct {
	id          int64
	score       int
	criteriaRef int64
}

func (m *gradeMapper) FindByID(ctx context.Context, id int64) (*models.Grade, error) {
	var evaluationID int64
	found, err := queryRow(ctx, `SELECT comment_ref FROM grades WHERE id = $1`, []any{id}, &evaluationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find grade %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}

	e, err := m.evaluations.FindByID(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, danglingReference(m.entity, id, "evaluation", evaluationID)
	}

	for _, g := range e.Grades {
		if g.ID == id {
			return g, nil
		}
	}
	// Deleted between the two reads.
	return nil, nil
}

func (m *gradeMapper) FindAll(ctx context.Context) ([]*models.Grade, error) {
	evaluationIDs, err := collect(ctx, `SELECT DISTINCT comment_ref FROM grades ORDER BY comment_ref`, nil,
		func(rows pgx.Rows) (int64, error) {
			var id int64
			err := rows.Scan(&id)
			return id, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list grades: %w", err)
	}

	var grades []*models.Grade
	for _, evaluationID := range evaluationIDs {
		e, err := m.evaluations.FindByID(ctx, evaluationID)
		if err != nil {
			return nil, err
		}
		if e == nil {
			continue
		}
		grades = append(grades, e.Grades...)
	}

	slices.SortFunc(grades, func(a, b *models.Grade) int { return cmp.Compare(a.ID, b.ID) })
	return grades, nil
}

func (m *gradeMapper) FindByEvaluation(ctx context.Context, e *models.CompleteEvaluation) ([]*models.Grade, error) {
	if !e.IsPersistent() {
		return nil, transientReference(m.entity, "evaluation")
	}

	rows, err := collect(ctx,
		`SELECT id, score, criteria_ref FROM grades WHERE comment_ref = $1 ORDER BY id`,
		[]any{e.ID},
		func(rows pgx.Rows) (gradeRow, error) {
			var g gradeRow
			err := rows.Scan(&g.id, &g.score, &g.criteriaRef)
			return g, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list grades of evaluation %d: %w", e.ID, err)
	}

	// Criteria are uncached; resolve each distinct one once per evaluation.
	resolved := make(map[int64]*models.EvaluationCriteria)
	grades := make([]*models.Grade, 0, len(rows))
	for _, row := range rows {
		c, ok := resolved[row.criteriaRef]
		if !ok {
			c, err = m.criteria.FindByID(ctx, row.criteriaRef)
			if err != nil {
				return nil, err
			}
			if c == nil {
				return nil, danglingReference(m.entity, row.id, "evaluation criteria", row.criteriaRef)
			}
			resolved[row.criteriaRef] = c
		}
		grades = append(grades, &models.Grade{
			ID:         row.id,
			Score:      row.score,
			Evaluation: e,
			Criteria:   c,
		})
	}
	return grades, nil
}

func (m *gradeMapper) validate(g *models.Grade) error {
	if !g.Evaluation.IsPersistent() {
		return transientReference(m.entity, "evaluation")
	}
	if !g.Criteria.IsPersistent() {
		return transientReference(m.entity, "criteria")
	}
	return checkScore(g)
}

// Create inserts g and adds it to its evaluation's grade set if missing.
func (m *gradeMapper) Create(ctx context.Context, g *models.Grade) (*models.Grade, error) {
	if g == nil {
		return nil, nilEntity(m.entity)
	}
	if g.IsPersistent() {
		return nil, alreadyPersistent(m.entity, g.ID)
	}
	if err := m.validate(g); err != nil {
		return nil, err
	}

	id, err := m.nextID(ctx, m.seq)
	if err != nil {
		return nil, err
	}
	if err := m.execOne(ctx, "create", id,
		`INSERT INTO grades (id, score, comment_ref, criteria_ref) VALUES ($1, $2, $3, $4)`,
		id, g.Score, g.Evaluation.ID, g.Criteria.ID); err != nil {
		return nil, err
	}

	g.ID = id
	if !slices.Contains(g.Evaluation.Grades, g) {
		g.Evaluation.Grades = append(g.Evaluation.Grades, g)
	}
	m.logger.Debug("Created grade",
		zap.Int64("grade_id", id),
		zap.Int64("evaluation_id", g.Evaluation.ID),
		zap.Int64("criteria_id", g.Criteria.ID))
	return g, nil
}

func (m *gradeMapper) Update(ctx context.Context, g *models.Grade) error {
	if !g.IsPersistent() {
		return notPersistent(m.entity)
	}
	if err := m.validate(g); err != nil {
		return err
	}
	return m.execOne(ctx, "update", g.ID,
		`UPDATE grades SET score = $2, comment_ref = $3, criteria_ref = $4 WHERE id = $1`,
		g.ID, g.Score, g.Evaluation.ID, g.Criteria.ID)
}

// Delete removes g and drops it from its evaluation's grade set.
func (m *gradeMapper) Delete(ctx context.Context, g *models.Grade) error {
	if !g.IsPersistent() {
		return notPersistent(m.entity)
	}
	if err := m.DeleteByID(ctx, g.ID); err != nil {
		return err
	}
	if g.Evaluation != nil {
		g.Evaluation.Grades = slices.DeleteFunc(g.Evaluation.Grades, func(x *models.Grade) bool { return x == g })
	}
	return nil
}

func (m *gradeMapper) DeleteByID(ctx context.Context, id int64) error {
	return m.deleteByID(ctx, id)
}

func (m *gradeMapper) DeleteByEvaluationID(ctx context.Context, evaluationID int64) (int64, error) {
	return m.deleteWhere(ctx, evaluationID,
		`DELETE FROM grades WHERE comment_ref = $1`, evaluationID)
}

func (m *gradeMapper) DeleteByEvaluationIDExcept(ctx context.Context, evaluationID int64, keep []int64) (int64, error) {
	if len(keep) == 0 {
		return m.DeleteByEvaluationID(ctx, evaluationID)
	}
	return m.deleteWhere(ctx, evaluationID,
		`DELETE FROM grades WHERE comment_ref = $1 AND NOT (id = ANY($2))`, evaluationID, keep)
}

func (m *gradeMapper) deleteWhere(ctx context.Context, evaluationID int64, query string, args ...any) (int64, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return 0, err
	}

	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete grades of evaluation %d: %w", evaluationID, err)
	}
	return result.RowsAffected(), nil
}

func (m *gradeMapper) Exists(ctx context.Context, id int64) (bool, error) {
	return m.exists(ctx, id)
}

func (m *gradeMapper) Count(ctx context.Context) (int64, error) {
	return m.count(ctx)
}
