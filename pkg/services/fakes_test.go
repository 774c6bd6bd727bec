package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/hearc-ig/guideresto/pkg/apperrors"
	"github.com/hearc-ig/guideresto/pkg/mappers"
	"github.com/hearc-ig/guideresto/pkg/models"
)

// memMapper is an in-memory mappers.Mapper.
type memMapper[T any] struct {
	rows map[int64]*T
	idOf func(*T) *int64
	next int64
	err  error
}

func newMem[T any](idOf func(*T) *int64) *memMapper[T] {
	return &memMapper[T]{rows: make(map[int64]*T), idOf: idOf}
}

func (m *memMapper[T]) FindByID(_ context.Context, id int64) (*T, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[id], nil
}

func (m *memMapper[T]) FindAll(_ context.Context) ([]*T, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]int64, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.rows[id])
	}
	return out, nil
}

func (m *memMapper[T]) Create(_ context.Context, e *T) (*T, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.next++
	*m.idOf(e) = m.next
	m.rows[m.next] = e
	return e, nil
}

func (m *memMapper[T]) Update(_ context.Context, e *T) error {
	id := *m.idOf(e)
	if _, ok := m.rows[id]; !ok {
		return fmt.Errorf("row %d: %w", id, apperrors.ErrNotFound)
	}
	m.rows[id] = e
	return nil
}

func (m *memMapper[T]) Delete(ctx context.Context, e *T) error {
	return m.DeleteByID(ctx, *m.idOf(e))
}

func (m *memMapper[T]) DeleteByID(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return fmt.Errorf("row %d: %w", id, apperrors.ErrNotFound)
	}
	delete(m.rows, id)
	return nil
}

func (m *memMapper[T]) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := m.rows[id]
	return ok, nil
}

func (m *memMapper[T]) Count(_ context.Context) (int64, error) {
	return int64(len(m.rows)), nil
}

type fakeRestaurantTypes struct {
	*memMapper[models.RestaurantType]
	resets int
}

func (f *fakeRestaurantTypes) ResetCache() { f.resets++ }

type fakeRestaurants struct {
	*memMapper[models.Restaurant]
	resets int
}

func (f *fakeRestaurants) ResetCache() { f.resets++ }

type fakeLikes struct {
	*memMapper[models.BasicEvaluation]
}

func (f *fakeLikes) FindByRestaurant(_ context.Context, r *models.Restaurant) ([]*models.BasicEvaluation, error) {
	var out []*models.BasicEvaluation
	for _, l := range f.rows {
		if l.Restaurant.ID == r.ID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeComments struct {
	*memMapper[models.CompleteEvaluation]
}

func (f *fakeComments) FindByRestaurant(_ context.Context, r *models.Restaurant) ([]*models.CompleteEvaluation, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.CompleteEvaluation
	for _, c := range f.rows {
		if c.Restaurant.ID == r.ID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeSet struct {
	*mappers.Set
	cities      *memMapper[models.City]
	types       *fakeRestaurantTypes
	criteria    *memMapper[models.EvaluationCriteria]
	restaurants *fakeRestaurants
	likes       *fakeLikes
	comments    *fakeComments
}

func newFakeSet() *fakeSet {
	f := &fakeSet{
		cities:      newMem(func(c *models.City) *int64 { return &c.ID }),
		types:       &fakeRestaurantTypes{memMapper: newMem(func(t *models.RestaurantType) *int64 { return &t.ID })},
		criteria:    newMem(func(c *models.EvaluationCriteria) *int64 { return &c.ID }),
		restaurants: &fakeRestaurants{memMapper: newMem(func(r *models.Restaurant) *int64 { return &r.ID })},
		likes:       &fakeLikes{memMapper: newMem(func(l *models.BasicEvaluation) *int64 { return &l.ID })},
		comments:    &fakeComments{memMapper: newMem(func(c *models.CompleteEvaluation) *int64 { return &c.ID })},
	}
	f.Set = &mappers.Set{
		Cities:              f.cities,
		RestaurantTypes:     f.types,
		EvaluationCriteria:  f.criteria,
		Restaurants:         f.restaurants,
		BasicEvaluations:    f.likes,
		CompleteEvaluations: f.comments,
	}
	return f
}
