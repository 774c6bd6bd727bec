package mappers

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hearc-ig/guideresto/pkg/database"
	"github.com/hearc-ig/guideresto/pkg/models"
	"github.com/hearc-ig/guideresto/pkg/sequence"
)

// CompleteEvaluationMapper persists comments together with the grades they own.
//
// Create, Update and Delete run in one transaction: the comment row and its
// grade rows are written or removed together. Update replaces the stored grade
// set with the in-memory one; stored grades missing from e.Grades are deleted.
type CompleteEvaluationMapper interface {
	Mapper[models.CompleteEvaluation]
	// FindByRestaurant returns the comments of one restaurant. The returned
	// evaluations point at the given restaurant instance.
	FindByRestaurant(ctx context.Context, r *models.Restaurant) ([]*models.CompleteEvaluation, error)
}

type completeEvaluationMapper struct {
	table
	seq         sequence.Source
	restaurants RestaurantMapper
	grades      GradeMapper
	logger      *zap.Logger
}

// NewCompleteEvaluationMapper creates a CompleteEvaluationMapper.
func NewCompleteEvaluationMapper(
	seq sequence.Source,
	restaurants RestaurantMapper,
	grades GradeMapper,
	logger *zap.Logger,
) CompleteEvaluationMapper {
	return &completeEvaluationMapper{
		table:       table{name: "comments", entity: "comment", sequence: sequence.Evaluations},
		seq:         seq,
		restaurants: restaurants,
		grades:      grades,
		logger:      logger.Named("comment-mapper"),
	}
}

var _ CompleteEvaluationMapper = (*completeEvaluationMapper)(nil)

type commentRow struct {
	id            int64
	visitDate     time.Time
	comment       string
	username      string
	restaurantRef int64
}

const commentColumns = `id, visit_date, comment_text, username, restaurant_ref`

func scanComment(row pgx.Rows) (commentRow, error) {
	var c commentRow
	err := row.Scan(&c.id, &c.visitDate, &c.comment, &c.username, &c.restaurantRef)
	return c, err
}

func (m *completeEvaluationMapper) FindByID(ctx context.Context, id int64) (*models.CompleteEvaluation, error) {
	var c commentRow
	found, err := queryRow(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`,
		[]any{id}, &c.id, &c.visitDate, &c.comment, &c.username, &c.restaurantRef)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}

	r, err := m.findRestaurant(ctx, c)
	if err != nil {
		return nil, err
	}
	return m.assemble(ctx, c, r)
}

func (m *completeEvaluationMapper) FindAll(ctx context.Context) ([]*models.CompleteEvaluation, error) {
	rows, err := collect(ctx, `SELECT `+commentColumns+` FROM comments ORDER BY id`, nil, scanComment)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return m.assembleAll(ctx, rows, nil)
}

func (m *completeEvaluationMapper) FindByRestaurant(ctx context.Context, r *models.Restaurant) ([]*models.CompleteEvaluation, error) {
	if !r.IsPersistent() {
		return nil, transientReference(m.entity, "restaurant")
	}

	rows, err := collect(ctx, `SELECT `+commentColumns+` FROM comments WHERE restaurant_ref = $1 ORDER BY id`,
		[]any{r.ID}, scanComment)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments of restaurant %d: %w", r.ID, err)
	}
	return m.assembleAll(ctx, rows, r)
}

// assembleAll resolves each row. When r is non-nil it is used as the
// restaurant of every row instead of being looked up.
func (m *completeEvaluationMapper) assembleAll(ctx context.Context, rows []commentRow, r *models.Restaurant) ([]*models.CompleteEvaluation, error) {
	evaluations := make([]*models.CompleteEvaluation, 0, len(rows))
	for _, c := range rows {
		restaurant := r
		if restaurant == nil {
			var err error
			if restaurant, err = m.findRestaurant(ctx, c); err != nil {
				return nil, err
			}
		}
		e, err := m.assemble(ctx, c, restaurant)
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, e)
	}
	return evaluations, nil
}

func (m *completeEvaluationMapper) findRestaurant(ctx context.Context, c commentRow) (*models.Restaurant, error) {
	r, err := m.restaurants.FindByID(ctx, c.restaurantRef)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, danglingReference(m.entity, c.id, "restaurant", c.restaurantRef)
	}
	return r, nil
}

func (m *completeEvaluationMapper) assemble(ctx context.Context, c commentRow, r *models.Restaurant) (*models.CompleteEvaluation, error) {
	e := &models.CompleteEvaluation{
		ID:         c.id,
		VisitDate:  c.visitDate,
		Comment:    c.comment,
		Username:   c.username,
		Restaurant: r,
	}

	grades, err := m.grades.FindByEvaluation(ctx, e)
	if err != nil {
		return nil, err
	}
	e.Grades = grades
	return e, nil
}

func (m *completeEvaluationMapper) checkReferences(e *models.CompleteEvaluation) error {
	if !e.Restaurant.IsPersistent() {
		return transientReference(m.entity, "restaurant")
	}
	for _, g := range e.Grades {
		if g == nil {
			return nilEntity("grade")
		}
		if !g.Criteria.IsPersistent() {
			return transientReference("grade", "criteria")
		}
		if err := checkScore(g); err != nil {
			return err
		}
	}
	return nil
}

// transientGrades returns the grades that Create would assign ids to.
func transientGrades(e *models.CompleteEvaluation) []*models.Grade {
	var out []*models.Grade
	for _, g := range e.Grades {
		if !g.IsPersistent() {
			out = append(out, g)
		}
	}
	return out
}

// forgetIDs returns grades to the transient state after a rolled back write.
func forgetIDs(grades []*models.Grade) {
	for _, g := range grades {
		g.ID = 0
	}
}

// Create inserts the comment, then every grade of e.Grades.
func (m *completeEvaluationMapper) Create(ctx context.Context, e *models.CompleteEvaluation) (*models.CompleteEvaluation, error) {
	if e == nil {
		return nil, nilEntity(m.entity)
	}
	if e.IsPersistent() {
		return nil, alreadyPersistent(m.entity, e.ID)
	}
	if err := m.checkReferences(e); err != nil {
		return nil, err
	}
	for _, g := range e.Grades {
		if g.IsPersistent() {
			return nil, alreadyPersistent("grade", g.ID)
		}
	}
	e.VisitDate = models.VisitDay(e.VisitDate)

	err := database.InTx(ctx, func(ctx context.Context) error {
		id, err := m.nextID(ctx, m.seq)
		if err != nil {
			return err
		}
		if err := m.execOne(ctx, "create", id,
			`INSERT INTO comments (id, visit_date, comment_text, username, restaurant_ref) VALUES ($1, $2, $3, $4, $5)`,
			id, e.VisitDate, e.Comment, e.Username, e.Restaurant.ID); err != nil {
			return err
		}
		e.ID = id

		for _, g := range e.Grades {
			g.Evaluation = e
			if _, err := m.grades.Create(ctx, g); err != nil {
				return fmt.Errorf("failed to create grades of comment %d: %w", id, err)
			}
			m.logger.Debug("Cascaded grade create", zap.Int64("evaluation_id", id), zap.Int64("grade_id", g.ID))
		}
		return nil
	})
	if err != nil {
		e.ID = 0
		forgetIDs(e.Grades)
		return nil, err
	}

	m.logger.Info("Created complete evaluation",
		zap.Int64("evaluation_id", e.ID),
		zap.Int64("restaurant_id", e.Restaurant.ID),
		zap.Int("grades", len(e.Grades)))
	return e, nil
}

// Update writes the comment, updates persistent grades, creates transient
// ones and deletes stored grades no longer in e.Grades.
func (m *completeEvaluationMapper) Update(ctx context.Context, e *models.CompleteEvaluation) error {
	if !e.IsPersistent() {
		return notPersistent(m.entity)
	}
	if err := m.checkReferences(e); err != nil {
		return err
	}
	e.VisitDate = models.VisitDay(e.VisitDate)

	created := transientGrades(e)
	var pruned int64
	err := database.InTx(ctx, func(ctx context.Context) error {
		if err := m.execOne(ctx, "update", e.ID,
			`UPDATE comments SET visit_date = $2, comment_text = $3, username = $4, restaurant_ref = $5 WHERE id = $1`,
			e.ID, e.VisitDate, e.Comment, e.Username, e.Restaurant.ID); err != nil {
			return err
		}

		keep := make([]int64, 0, len(e.Grades))
		for _, g := range e.Grades {
			g.Evaluation = e
			if g.IsPersistent() {
				if err := m.grades.Update(ctx, g); err != nil {
					return fmt.Errorf("failed to update grades of comment %d: %w", e.ID, err)
				}
			} else if _, err := m.grades.Create(ctx, g); err != nil {
				return fmt.Errorf("failed to create grades of comment %d: %w", e.ID, err)
			}
			keep = append(keep, g.ID)
		}

		var err error
		pruned, err = m.grades.DeleteByEvaluationIDExcept(ctx, e.ID, keep)
		return err
	})
	if err != nil {
		forgetIDs(created)
		return err
	}

	m.logger.Info("Updated complete evaluation",
		zap.Int64("evaluation_id", e.ID),
		zap.Int("grades", len(e.Grades)),
		zap.Int("grades_created", len(created)),
		zap.Int64("grades_deleted", pruned))
	return nil
}

func (m *completeEvaluationMapper) Delete(ctx context.Context, e *models.CompleteEvaluation) error {
	if !e.IsPersistent() {
		return notPersistent(m.entity)
	}
	return m.DeleteByID(ctx, e.ID)
}

// DeleteByID removes the grades of the comment, then the comment.
func (m *completeEvaluationMapper) DeleteByID(ctx context.Context, id int64) error {
	var removed int64
	err := database.InTx(ctx, func(ctx context.Context) error {
		var err error
		if removed, err = m.grades.DeleteByEvaluationID(ctx, id); err != nil {
			return err
		}
		m.logger.Debug("Cascaded grade delete", zap.Int64("evaluation_id", id), zap.Int64("grades", removed))
		return m.deleteByID(ctx, id)
	})
	if err != nil {
		return err
	}

	m.logger.Info("Deleted complete evaluation", zap.Int64("evaluation_id", id), zap.Int64("grades", removed))
	return nil
}

func (m *completeEvaluationMapper) Exists(ctx context.Context, id int64) (bool, error) {
	return m.exists(ctx, id)
}

func (m *completeEvaluationMapper) Count(ctx context.Context) (int64, error) {
	return m.count(ctx)
}
