package mappers

import (
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearc-ig/guideresto/pkg/apperrors"
	"github.com/hearc-ig/guideresto/pkg/models"
	"github.com/hearc-ig/guideresto/pkg/sequence"
)

var likeCols = []string{"id", "like_flag", "visit_date", "ip_address", "restaurant_ref"}

func TestBasicEvaluationMapper_CreateAndFind(t *testing.T) {
	f := newFixture(t, true)

	restaurant := &models.Restaurant{ID: 1, Name: "Da Mario"}

	f.expectNextID(sequence.Evaluations, 10)
	f.expectExec("INSERT INTO likes", 1).
		WithArgs(int64(10), true, visitDay, "192.168.1.4", int64(1))
	f.mock.ExpectQuery(stmt("FROM likes WHERE id = $1")).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows(likeCols).AddRow(int64(10), true, visitDay, "192.168.1.4", int64(1)))
	f.expectRestaurantRow(1, "Da Mario", 1, 1)
	f.expectCityRow(1, "2000", "Neuchâtel")
	f.expectTypeRow(1, "Pizzeria", "")

	like := &models.BasicEvaluation{VisitDate: visitDay, Likes: true, IPAddress: "192.168.1.4", Restaurant: restaurant}
	_, err := f.set.BasicEvaluations.Create(f.ctx, like)
	require.NoError(t, err)
	assert.Equal(t, int64(10), like.ID)

	found, err := f.set.BasicEvaluations.FindByID(f.ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Likes)
	assert.Equal(t, visitDay, found.VisitDate)
	assert.Equal(t, "192.168.1.4", found.IPAddress)
	assert.Equal(t, "Da Mario", found.Restaurant.Name)
	f.verify(t)
}

func TestBasicEvaluationMapper_CreateRequiresRestaurant(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.set.BasicEvaluations.Create(f.ctx, &models.BasicEvaluation{Likes: true})
	assert.ErrorIs(t, err, apperrors.ErrInvalidReference)
	f.verify(t)
}

func TestBasicEvaluationMapper_FindByRestaurantUsesGivenInstance(t *testing.T) {
	f := newFixture(t, true)

	restaurant := &models.Restaurant{ID: 2}
	f.mock.ExpectQuery(stmt("FROM likes WHERE restaurant_ref = $1")).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows(likeCols).
			AddRow(int64(3), true, visitDay, "10.0.0.1", int64(2)).
			AddRow(int64(5), false, visitDay, "10.0.0.2", int64(2)))

	likes, err := f.set.BasicEvaluations.FindByRestaurant(f.ctx, restaurant)
	require.NoError(t, err)
	require.Len(t, likes, 2)
	assert.Same(t, restaurant, likes[0].Restaurant)
	assert.False(t, likes[1].Likes)
	f.verify(t)
}

func TestBasicEvaluationMapper_CreateStoresCalendarDate(t *testing.T) {
	f := newFixture(t, true)

	// 00:30 on March 14 at UTC+1 is still March 13 in UTC.
	cet := time.FixedZone("CET", 3600)
	visit := time.Date(2024, time.March, 14, 0, 30, 0, 0, cet)

	f.expectNextID(sequence.Evaluations, 11)
	f.expectExec("INSERT INTO likes", 1).
		WithArgs(int64(11), false, visitDay, "10.0.0.9", int64(1))

	like := &models.BasicEvaluation{VisitDate: visit, IPAddress: "10.0.0.9", Restaurant: &models.Restaurant{ID: 1}}
	_, err := f.set.BasicEvaluations.Create(f.ctx, like)
	require.NoError(t, err)
	assert.Equal(t, visitDay, like.VisitDate)
	f.verify(t)
}

func TestBasicEvaluationMapper_UpdateMissAndDelete(t *testing.T) {
	f := newFixture(t, true)

	like := &models.BasicEvaluation{ID: 4, Likes: false, VisitDate: visitDay, IPAddress: "::1", Restaurant: &models.Restaurant{ID: 1}}
	f.expectExec("UPDATE likes", 0).WithArgs(int64(4), false, visitDay, "::1", int64(1))
	f.expectExec("DELETE FROM likes WHERE id = $1", 1).WithArgs(int64(4))

	assert.ErrorIs(t, f.set.BasicEvaluations.Update(f.ctx, like), apperrors.ErrNotFound)
	assert.NoError(t, f.set.BasicEvaluations.Delete(f.ctx, like))
	f.verify(t)
}
