package mappers

import (
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearc-ig/guideresto/pkg/apperrors"
	"github.com/hearc-ig/guideresto/pkg/models"
	"github.com/hearc-ig/guideresto/pkg/sequence"
)

func TestRestaurantMapper_FindByIDResolvesReferences(t *testing.T) {
	f := newFixture(t, true)

	f.expectRestaurantRow(1, "Da Mario", 2, 3)
	f.expectCityRow(3, "2000", "Neuchâtel")
	f.expectTypeRow(2, "Pizzeria", "")

	r, err := f.set.Restaurants.FindByID(f.ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Da Mario", r.Name)
	assert.Equal(t, "Rue A", r.Address.Street)
	assert.Equal(t, "Neuchâtel", r.Address.City.Name)
	assert.Equal(t, "Pizzeria", r.Type.Label)

	again, err := f.set.Restaurants.FindByID(f.ctx, 1)
	require.NoError(t, err)
	assert.Same(t, r, again)
	f.verify(t)
}

func TestRestaurantMapper_FindAllDrainsBeforeResolving(t *testing.T) {
	f := newFixture(t, true)

	// Both rows are read before the first reference lookup runs.
	f.mock.ExpectQuery(stmt("FROM restaurants ORDER BY id")).
		WillReturnRows(pgxmock.NewRows(restaurantCols).
			AddRow(int64(1), "Da Mario", "Rue A", "", "", int64(1), int64(1)).
			AddRow(int64(2), "Chez Léon", "Rue B", "Bistrot", "https://leon.ch", int64(1), int64(2)))
	f.expectCityRow(1, "2000", "Neuchâtel")
	f.expectTypeRow(1, "Pizzeria", "")
	f.expectCityRow(2, "2300", "La Chaux-de-Fonds")

	all, err := f.set.Restaurants.FindAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Same(t, all[0].Type, all[1].Type)
	assert.Equal(t, "https://leon.ch", all[1].Website)

	cached, err := f.set.Restaurants.FindByID(f.ctx, 2)
	require.NoError(t, err)
	assert.Same(t, all[1], cached)
	f.verify(t)
}

func TestRestaurantMapper_DanglingReference(t *testing.T) {
	f := newFixture(t, true)

	f.expectRestaurantRow(1, "Da Mario", 1, 9)
	f.expectNoRows("FROM cities WHERE id = $1", 9)

	r, err := f.set.Restaurants.FindByID(f.ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidReference)
	assert.Nil(t, r)
	f.verify(t)
}

func TestRestaurantMapper_CreateRequiresPersistentReferences(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.set.Restaurants.Create(f.ctx, &models.Restaurant{
		Name:    "Da Mario",
		Address: models.Localisation{Street: "Rue A", City: &models.City{Name: "Neuchâtel"}},
		Type:    &models.RestaurantType{ID: 1},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidReference)

	_, err = f.set.Restaurants.Create(f.ctx, &models.Restaurant{
		Name:    "Da Mario",
		Address: models.Localisation{Street: "Rue A", City: &models.City{ID: 1}},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidReference)
	f.verify(t)
}

func TestRestaurantMapper_CreateCaches(t *testing.T) {
	f := newFixture(t, true)

	f.expectNextID(sequence.Restaurants, 6)
	f.expectExec("INSERT INTO restaurants", 1).
		WithArgs(int64(6), "Da Mario", "Rue A", "", "", int64(1), int64(2))

	r := &models.Restaurant{
		Name:    "Da Mario",
		Address: models.Localisation{Street: "Rue A", City: &models.City{ID: 2}},
		Type:    &models.RestaurantType{ID: 1},
	}
	_, err := f.set.Restaurants.Create(f.ctx, r)
	require.NoError(t, err)

	found, err := f.set.Restaurants.FindByID(f.ctx, 6)
	require.NoError(t, err)
	assert.Same(t, r, found)
	f.verify(t)
}

func TestRestaurantMapper_DeleteDoesNotCascade(t *testing.T) {
	f := newFixture(t, true)

	f.mock.ExpectExec(stmt("DELETE FROM restaurants WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnError(errors.New(`update or delete on table "restaurants" violates foreign key constraint`))

	err := f.set.Restaurants.DeleteByID(f.ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foreign key")
	f.verify(t)
}

func TestRestaurantMapper_UpdateMiss(t *testing.T) {
	f := newFixture(t, true)

	f.expectExec("UPDATE restaurants", 0)

	err := f.set.Restaurants.Update(f.ctx, &models.Restaurant{
		ID:      77,
		Name:    "Ghost",
		Address: models.Localisation{City: &models.City{ID: 1}},
		Type:    &models.RestaurantType{ID: 1},
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.verify(t)
}
