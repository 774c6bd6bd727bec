package mappers

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hearc-ig/guideresto/pkg/database"
	"github.com/hearc-ig/guideresto/pkg/sequence"
)

// mapperFixture is a mapper set bound to a mock connection.
type mapperFixture struct {
	mock pgxmock.PgxConnIface
	ctx  context.Context
	set  *Set
}

func newFixture(t *testing.T, cacheEnabled bool) *mapperFixture {
	t.Helper()

	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mock.Close(context.Background()) })

	ctx := database.SetSession(context.Background(), database.NewSession(mock, nil))
	return &mapperFixture{
		mock: mock,
		ctx:  ctx,
		set:  NewSet(sequence.NewPostgresSource(), cacheEnabled, zap.NewNop()),
	}
}

func (f *mapperFixture) verify(t *testing.T) {
	t.Helper()
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func stmt(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

func (f *mapperFixture) expectNextID(seq string, id int64) {
	f.mock.ExpectQuery(stmt("SELECT nextval($1::regclass)")).
		WithArgs(seq).
		WillReturnRows(pgxmock.NewRows([]string{"nextval"}).AddRow(id))
}

func (f *mapperFixture) expectExec(fragment string, affected int64) *pgxmock.ExpectedExec {
	e := f.mock.ExpectExec(stmt(fragment))
	e.WillReturnResult(pgxmock.NewResult("OK", affected))
	return e
}

func (f *mapperFixture) expectNoRows(fragment string, id int64) {
	f.mock.ExpectQuery(stmt(fragment)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
}

func (f *mapperFixture) expectCityRow(id int64, zip, name string) {
	f.mock.ExpectQuery(stmt("FROM cities WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "zip_code", "name"}).AddRow(id, zip, name))
}

func (f *mapperFixture) expectTypeRow(id int64, label, description string) {
	f.mock.ExpectQuery(stmt("FROM restaurant_types WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "label", "description"}).AddRow(id, label, description))
}

func (f *mapperFixture) expectCriteriaRow(id int64, name, description string) {
	f.mock.ExpectQuery(stmt("FROM evaluation_criteria WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description"}).AddRow(id, name, description))
}

var restaurantCols = []string{"id", "name", "address", "description", "website", "type_ref", "city_ref"}

func (f *mapperFixture) expectRestaurantRow(id int64, name string, typeRef, cityRef int64) {
	f.mock.ExpectQuery(stmt("FROM restaurants WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(restaurantCols).
			AddRow(id, name, "Rue A", "", "", typeRef, cityRef))
}

var commentCols = []string{"id", "visit_date", "comment_text", "username", "restaurant_ref"}

func (f *mapperFixture) expectCommentRow(id int64, comment, username string, restaurantRef int64) {
	f.mock.ExpectQuery(stmt("FROM comments WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(commentCols).
			AddRow(id, visitDay, comment, username, restaurantRef))
}

func (f *mapperFixture) expectGradeRows(evaluationID int64, rows ...[3]int64) {
	r := pgxmock.NewRows([]string{"id", "score", "criteria_ref"})
	for _, row := range rows {
		r.AddRow(row[0], int(row[1]), row[2])
	}
	f.mock.ExpectQuery(stmt("FROM grades WHERE comment_ref = $1")).
		WithArgs(evaluationID).
		WillReturnRows(r)
}

var visitDay = time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC)
