package mappers

import (
	"context"

	"go.uber.org/zap"

	"github.com/hearc-ig/guideresto/pkg/cache"
	"github.com/hearc-ig/guideresto/pkg/models"
	"github.com/hearc-ig/guideresto/pkg/sequence"
)

// Set wires the seven mappers together. The identity caches belong to the
// Set, so one Set should serve one session.
type Set struct {
	Cities              CityMapper
	RestaurantTypes     RestaurantTypeMapper
	EvaluationCriteria  EvaluationCriteriaMapper
	Restaurants         RestaurantMapper
	BasicEvaluations    BasicEvaluationMapper
	CompleteEvaluations CompleteEvaluationMapper
	Grades              GradeMapper
}

// NewSet builds a mapper set drawing identifiers from seq. When cacheEnabled
// is false the restaurant and restaurant type mappers read through to the
// database on every lookup.
func NewSet(seq sequence.Source, cacheEnabled bool, logger *zap.Logger) *Set {
	typeCache := cache.Disabled[models.RestaurantType]()
	restaurantCache := cache.Disabled[models.Restaurant]()
	if cacheEnabled {
		typeCache = cache.NewIdentityMap[models.RestaurantType]()
		restaurantCache = cache.NewIdentityMap[models.Restaurant]()
	}

	s := &Set{}
	s.Cities = NewCityMapper(seq, logger)
	s.RestaurantTypes = NewRestaurantTypeMapper(seq, typeCache, logger)
	s.EvaluationCriteria = NewEvaluationCriteriaMapper(seq, logger)
	s.Restaurants = NewRestaurantMapper(seq, restaurantCache, s.Cities, s.RestaurantTypes, logger)
	s.BasicEvaluations = NewBasicEvaluationMapper(seq, s.Restaurants, logger)

	// Grades and comments reference each other; the grade mapper reaches the
	// comment mapper through the Set once it exists.
	s.Grades = NewGradeMapper(seq, s.EvaluationCriteria, EvaluationFinderFunc(
		func(ctx context.Context, id int64) (*models.CompleteEvaluation, error) {
			return s.CompleteEvaluations.FindByID(ctx, id)
		}), logger)
	s.CompleteEvaluations = NewCompleteEvaluationMapper(seq, s.Restaurants, s.Grades, logger)

	return s
}

// ResetCaches empties every identity cache of the set.
func (s *Set) ResetCaches() {
	s.RestaurantTypes.ResetCache()
	s.Restaurants.ResetCache()
}
