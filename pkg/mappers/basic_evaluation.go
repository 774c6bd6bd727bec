package mappers

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hearc-ig/guideresto/pkg/models"
	"github.com/hearc-ig/guideresto/pkg/sequence"
)

// BasicEvaluationMapper persists likes and dislikes.
type BasicEvaluationMapper interface {
	Mapper[models.BasicEvaluation]
	// FindByRestaurant returns the likes of one restaurant. The returned
	// evaluations point at the given restaurant instance.
	FindByRestaurant(ctx context.Context, r *models.Restaurant) ([]*models.BasicEvaluation, error)
}

type basicEvaluationMapper struct {
	table
	seq         sequence.Source
	restaurants RestaurantMapper
	logger      *zap.Logger
}

// NewBasicEvaluationMapper creates a BasicEvaluationMapper.
func NewBasicEvaluationMapper(seq sequence.Source, restaurants RestaurantMapper, logger *zap.Logger) BasicEvaluationMapper {
	return &basicEvaluationMapper{
		table:       table{name: "likes", entity: "like", sequence: sequence.Evaluations},
		seq:         seq,
		restaurants: restaurants,
		logger:      logger.Named("like-mapper"),
	}
}

var _ BasicEvaluationMapper = (*basicEvaluationMapper)(nil)

type likeRow struct {
	id            int64
	likes         bool
	visitDate     time.Time
	ipAddress     string
	restaurantRef int64
}

const likeColumns = `id, like_flag, visit_date, ip_address, restaurant_ref`

func scanLike(row pgx.Rows) (likeRow, error) {
	var l likeRow
	err := row.Scan(&l.id, &l.likes, &l.visitDate, &l.ipAddress, &l.restaurantRef)
	return l, err
}

func (l likeRow) toModel(r *models.Restaurant) *models.BasicEvaluation {
	return &models.BasicEvaluation{
		ID:         l.id,
		VisitDate:  l.visitDate,
		Likes:      l.likes,
		IPAddress:  l.ipAddress,
		Restaurant: r,
	}
}

func (m *basicEvaluationMapper) FindByID(ctx context.Context, id int64) (*models.BasicEvaluation, error) {
	var l likeRow
	found, err := queryRow(ctx,
		`SELECT `+likeColumns+` FROM likes WHERE id = $1`,
		[]any{id}, &l.id, &l.likes, &l.visitDate, &l.ipAddress, &l.restaurantRef)
	if err != nil {
		return nil, fmt.Errorf("failed to find like %d: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return m.resolve(ctx, l)
}

func (m *basicEvaluationMapper) FindAll(ctx context.Context) ([]*models.BasicEvaluation, error) {
	rows, err := collect(ctx, `SELECT `+likeColumns+` FROM likes ORDER BY id`, nil, scanLike)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}

	likes := make([]*models.BasicEvaluation, 0, len(rows))
	for _, l := range rows {
		e, err := m.resolve(ctx, l)
		if err != nil {
			return nil, err
		}
		likes = append(likes, e)
	}
	return likes, nil
}

func (m *basicEvaluationMapper) FindByRestaurant(ctx context.Context, r *models.Restaurant) ([]*models.BasicEvaluation, error) {
	if !r.IsPersistent() {
		return nil, transientReference(m.entity, "restaurant")
	}

	rows, err := collect(ctx, `SELECT `+likeColumns+` FROM likes WHERE restaurant_ref = $1 ORDER BY id`,
		[]any{r.ID}, scanLike)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes of restaurant %d: %w", r.ID, err)
	}

	likes := make([]*models.BasicEvaluation, 0, len(rows))
	for _, l := range rows {
		likes = append(likes, l.toModel(r))
	}
	return likes, nil
}

func (m *basicEvaluationMapper) resolve(ctx context.Context, l likeRow) (*models.BasicEvaluation, error) {
	r, err := m.restaurants.FindByID(ctx, l.restaurantRef)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, danglingReference(m.entity, l.id, "restaurant", l.restaurantRef)
	}
	return l.toModel(r), nil
}

func (m *basicEvaluationMapper) Create(ctx context.Context, e *models.BasicEvaluation) (*models.BasicEvaluation, error) {
	if e == nil {
		return nil, nilEntity(m.entity)
	}
	if e.IsPersistent() {
		return nil, alreadyPersistent(m.entity, e.ID)
	}
	if !e.Restaurant.IsPersistent() {
		return nil, transientReference(m.entity, "restaurant")
	}
	e.VisitDate = models.VisitDay(e.VisitDate)

	id, err := m.nextID(ctx, m.seq)
	if err != nil {
		return nil, err
	}
	if err := m.execOne(ctx, "create", id,
		`INSERT INTO likes (id, like_flag, visit_date, ip_address, restaurant_ref) VALUES ($1, $2, $3, $4, $5)`,
		id, e.Likes, e.VisitDate, e.IPAddress, e.Restaurant.ID); err != nil {
		return nil, err
	}

	e.ID = id
	m.logger.Debug("Created like", zap.Int64("like_id", id), zap.Int64("restaurant_id", e.Restaurant.ID))
	return e, nil
}

func (m *basicEvaluationMapper) Update(ctx context.Context, e *models.BasicEvaluation) error {
	if !e.IsPersistent() {
		return notPersistent(m.entity)
	}
	if !e.Restaurant.IsPersistent() {
		return transientReference(m.entity, "restaurant")
	}
	e.VisitDate = models.VisitDay(e.VisitDate)
	return m.execOne(ctx, "update", e.ID,
		`UPDATE likes SET like_flag = $2, visit_date = $3, ip_address = $4, restaurant_ref = $5 WHERE id = $1`,
		e.ID, e.Likes, e.VisitDate, e.IPAddress, e.Restaurant.ID)
}

func (m *basicEvaluationMapper) Delete(ctx context.Context, e *models.BasicEvaluation) error {
	if !e.IsPersistent() {
		return notPersistent(m.entity)
	}
	return m.DeleteByID(ctx, e.ID)
}

func (m *basicEvaluationMapper) DeleteByID(ctx context.Context, id int64) error {
	return m.deleteByID(ctx, id)
}

func (m *basicEvaluationMapper) Exists(ctx context.Context, id int64) (bool, error) {
	return m.exists(ctx, id)
}

func (m *basicEvaluationMapper) Count(ctx context.Context) (int64, error) {
	return m.count(ctx)
}
