//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hearc-ig/guideresto/pkg/database"
	"github.com/hearc-ig/guideresto/pkg/testhelpers"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)

	sqlDB, err := sql.Open("pgx", testDB.ConnStr)
	require.NoError(t, err)
	defer sqlDB.Close()

	// The helper already migrated; a second run finds nothing to do.
	require.NoError(t, database.RunMigrations(sqlDB, zap.NewNop()))
}

func TestMigrations_Constraints(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := testDB.Session(t)

	q, err := database.QuerierFrom(ctx)
	require.NoError(t, err)

	_, err = q.Exec(ctx, `INSERT INTO cities (id, zip_code, name) VALUES (1, '2000', 'Neuchâtel')`)
	require.NoError(t, err)
	_, err = q.Exec(ctx, `INSERT INTO restaurant_types (id, label) VALUES (1, 'Pizzeria')`)
	require.NoError(t, err)

	// Unknown city reference.
	_, err = q.Exec(ctx, `INSERT INTO restaurants (id, name, address, type_ref, city_ref) VALUES (1, 'Da Mario', 'Rue A', 1, 99)`)
	assert.Error(t, err)

	_, err = q.Exec(ctx, `INSERT INTO restaurants (id, name, address, type_ref, city_ref) VALUES (1, 'Da Mario', 'Rue A', 1, 1)`)
	require.NoError(t, err)
	_, err = q.Exec(ctx, `INSERT INTO evaluation_criteria (id, name) VALUES (1, 'Service')`)
	require.NoError(t, err)
	_, err = q.Exec(ctx, `INSERT INTO comments (id, visit_date, comment_text, username, restaurant_ref) VALUES (1, CURRENT_DATE, 'Great', 'bob', 1)`)
	require.NoError(t, err)

	// Scores are bounded to 1..5.
	_, err = q.Exec(ctx, `INSERT INTO grades (id, score, comment_ref, criteria_ref) VALUES (1, 6, 1, 1)`)
	assert.Error(t, err)

	// A restaurant type label is unique.
	_, err = q.Exec(ctx, `INSERT INTO restaurant_types (id, label) VALUES (2, 'Pizzeria')`)
	assert.Error(t, err)
}

func TestMigrations_SequencesExist(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()

	for _, seq := range []string{
		"seq_cities", "seq_restaurant_types", "seq_evaluation_criteria",
		"seq_restaurants", "seq_evaluations", "seq_grades",
	} {
		var n int
		err := testDB.DB.QueryRow(ctx,
			`SELECT COUNT(*) FROM information_schema.sequences WHERE sequence_name = $1`, seq).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "sequence %s", seq)
	}
}
