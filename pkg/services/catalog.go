package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/hearc-ig/guideresto/pkg/mappers"
	"github.com/hearc-ig/guideresto/pkg/models"
)

// CatalogService provides read-side views over the guide.
type CatalogService interface {
	Restaurants(ctx context.Context) ([]*models.Restaurant, error)
	Cities(ctx context.Context) ([]*models.City, error)
	RestaurantTypes(ctx context.Context) ([]*models.RestaurantType, error)
	EvaluationCriteria(ctx context.Context) ([]*models.EvaluationCriteria, error)
	// RestaurantSummary returns nil and no error when the restaurant does not exist.
	RestaurantSummary(ctx context.Context, restaurantID int64) (*models.RestaurantSummary, error)
}

type catalogService struct {
	mappers *mappers.Set
	logger  *zap.Logger
}

func NewCatalogService(set *mappers.Set, logger *zap.Logger) CatalogService {
	return &catalogService{
		mappers: set,
		logger:  logger.Named("catalog-service"),
	}
}

var _ CatalogService = (*catalogService)(nil)

func byName(a, b string) int {
	return cmp.Or(
		strings.Compare(strings.ToLower(a), strings.ToLower(b)),
		strings.Compare(a, b),
	)
}

func (s *catalogService) Restaurants(ctx context.Context) ([]*models.Restaurant, error) {
	restaurants, err := s.mappers.Restaurants.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(restaurants, func(a, b *models.Restaurant) int { return byName(a.Name, b.Name) })
	return restaurants, nil
}

func (s *catalogService) Cities(ctx context.Context) ([]*models.City, error) {
	cities, err := s.mappers.Cities.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(cities, func(a, b *models.City) int { return byName(a.Name, b.Name) })
	return cities, nil
}

func (s *catalogService) RestaurantTypes(ctx context.Context) ([]*models.RestaurantType, error) {
	types, err := s.mappers.RestaurantTypes.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(types, func(a, b *models.RestaurantType) int { return byName(a.Label, b.Label) })
	return types, nil
}

func (s *catalogService) EvaluationCriteria(ctx context.Context) ([]*models.EvaluationCriteria, error) {
	criteria, err := s.mappers.EvaluationCriteria.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(criteria, func(a, b *models.EvaluationCriteria) int { return byName(a.Name, b.Name) })
	return criteria, nil
}

func (s *catalogService) RestaurantSummary(ctx context.Context, restaurantID int64) (*models.RestaurantSummary, error) {
	restaurant, err := s.mappers.Restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant == nil {
		return nil, nil
	}

	likes, err := s.mappers.BasicEvaluations.FindByRestaurant(ctx, restaurant)
	if err != nil {
		return nil, fmt.Errorf("failed to load likes: %w", err)
	}
	comments, err := s.mappers.CompleteEvaluations.FindByRestaurant(ctx, restaurant)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	summary := &models.RestaurantSummary{
		Restaurant: restaurant,
		Comments:   len(comments),
	}
	for _, l := range likes {
		if l.Likes {
			summary.Likes++
		} else {
			summary.Dislikes++
		}
	}
	summary.Scores = averageScores(comments)

	s.logger.Debug("Summarized restaurant",
		zap.Int64("restaurant_id", restaurantID),
		zap.Int("likes", summary.Likes),
		zap.Int("dislikes", summary.Dislikes),
		zap.Int("comments", summary.Comments))
	return summary, nil
}

// averageScores groups grades by criteria id, ordered by criteria name.
func averageScores(comments []*models.CompleteEvaluation) []models.CriteriaAverage {
	type total struct {
		criteria *models.EvaluationCriteria
		sum, n   int
	}
	totals := make(map[int64]*total)
	for _, c := range comments {
		for _, g := range c.Grades {
			if g.Criteria == nil {
				continue
			}
			t, ok := totals[g.Criteria.ID]
			if !ok {
				t = &total{criteria: g.Criteria}
				totals[g.Criteria.ID] = t
			}
			t.sum += g.Score
			t.n++
		}
	}

	out := make([]models.CriteriaAverage, 0, len(totals))
	for _, t := range totals {
		out = append(out, models.CriteriaAverage{
			Criteria: t.criteria,
			Average:  float64(t.sum) / float64(t.n),
			Grades:   t.n,
		})
	}
	slices.SortFunc(out, func(a, b models.CriteriaAverage) int {
		return cmp.Or(byName(a.Criteria.Name, b.Criteria.Name), cmp.Compare(a.Criteria.ID, b.Criteria.ID))
	})
	return out
}
