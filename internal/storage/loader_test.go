package storage_test

import (
	"context"
	"testing"

	"catalogetl/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "AppID,Name,Release date,Required age,Price,Positive,Negative,Categories"

type stored struct {
	Name        string  `db:"name"`
	ReleaseDate *string `db:"release_date"`
	ReleaseYear *int64  `db:"release_year"`
	RequiredAge int64   `db:"required_age"`
	Price       float64 `db:"price"`
	Positive    int64   `db:"positive_reviews"`
	Negative    int64   `db:"negative_reviews"`
}

func fetch(t *testing.T, db *storage.DB, appID int64) stored {
	t.Helper()
	var s stored
	require.NoError(t, db.Get(&s, `SELECT name, release_date, release_year, required_age, price,
		positive_reviews, negative_reviews FROM games WHERE app_id = ?`, appID))
	return s
}

func count(t *testing.T, db *storage.DB) int64 {
	t.Helper()
	n, err := db.Count(context.Background(), "games")
	require.NoError(t, err)
	return n
}

func TestLoad_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := openCatalog(t)
	recs := records(t, header,
		`10,Alpha,"Oct 29, 2024",0,9.99,100,5,"Single-player"`,
		`20,Beta,"March 3, 2019",18,0,7,1,`,
		`30,Gamma,2021,0,4.5,0,0,`,
	)
	l := storage.NewLoader(db, storage.LoaderOptions{})

	first, err := l.Load(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Rows)
	assert.Equal(t, 3, first.Upserted)
	assert.Zero(t, first.Errors)
	assert.Equal(t, 1, first.Batches)
	before := fetch(t, db, 10)

	second, err := l.Load(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 3, second.Upserted)
	assert.Zero(t, second.Errors)
	assert.EqualValues(t, 3, count(t, db))
	assert.Equal(t, before, fetch(t, db, 10))

	g := fetch(t, db, 30)
	require.NotNil(t, g.ReleaseDate)
	assert.Equal(t, "2021-01-01", *g.ReleaseDate)
	require.NotNil(t, g.ReleaseYear)
	assert.EqualValues(t, 2021, *g.ReleaseYear)
}

func TestLoad_UpdatesOnlyMutableColumns(t *testing.T) {
	ctx := context.Background()
	db := openCatalog(t)
	l := storage.NewLoader(db, storage.LoaderOptions{})

	_, err := l.Load(ctx, records(t, header, `1,Old Name,"Oct 29, 2024",18,9.99,10,2,`))
	require.NoError(t, err)

	rep, err := l.Load(ctx, records(t, header, `1,New Name,,0,19.99,20,3,`))
	require.NoError(t, err)
	require.Equal(t, 1, rep.Upserted)

	got := fetch(t, db, 1)
	assert.Equal(t, "New Name", got.Name)
	assert.InDelta(t, 19.99, got.Price, 1e-9)
	assert.EqualValues(t, 20, got.Positive)
	assert.EqualValues(t, 3, got.Negative)

	require.NotNil(t, got.ReleaseDate)
	assert.Equal(t, "2024-10-29", *got.ReleaseDate)
	assert.EqualValues(t, 18, got.RequiredAge)
}

func TestLoad_IsolatesRowErrors(t *testing.T) {
	ctx := context.Background()
	db := openCatalog(t)
	recs := records(t, header,
		`1,One,,0,1,0,0,`,
		`2,Two,,0,1,0,0,`,
		`not-a-number,Bad key,,0,1,0,0,`,
		`4,Four,,0,1,0,0,`,
		`5,Five,,0,1,0,0,`,
	)
	rep, err := storage.NewLoader(db, storage.LoaderOptions{BatchSize: 2}).Load(ctx, recs)
	require.NoError(t, err)

	assert.Equal(t, 5, rep.Rows)
	assert.Equal(t, 4, rep.Upserted)
	assert.Equal(t, 1, rep.Errors)
	assert.Equal(t, 2, rep.Batches)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, 4, rep.Failures[0].Line)
	assert.Zero(t, rep.Failures[0].AppID)
	assert.NotEmpty(t, rep.Failures[0].Err)
	assert.EqualValues(t, 4, count(t, db))
}

func TestLoad_MissingNameFails(t *testing.T) {
	ctx := context.Background()
	db := openCatalog(t)
	recs := records(t, header,
		`1,,,0,1,0,0,`,
		`2,  ,,0,1,0,0,`,
		`3,Three,,0,1,0,0,`,
	)
	rep, err := storage.NewLoader(db, storage.LoaderOptions{MaxErrorDetails: 1}).Load(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Upserted)
	assert.Equal(t, 2, rep.Errors)
	assert.Len(t, rep.Failures, 1)
	assert.EqualValues(t, 1, rep.Failures[0].AppID)
}

func TestLoad_BatchBoundaries(t *testing.T) {
	ctx := context.Background()
	db := openCatalog(t)
	recs := records(t, header,
		`1,A,,0,0,0,0,`,
		`2,B,,0,0,0,0,`,
		`3,C,,0,0,0,0,`,
		`4,D,,0,0,0,0,`,
		`5,E,,0,0,0,0,`,
	)
	rep, err := storage.NewLoader(db, storage.LoaderOptions{BatchSize: 2}).Load(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Batches)
	assert.Equal(t, 5, rep.Upserted)
}

func TestLoad_DuplicateKeysLastWins(t *testing.T) {
	ctx := context.Background()
	db := openCatalog(t)
	recs := records(t, header,
		`7,First,,0,1,0,0,`,
		`7,First,,0,1,0,0,`,
		`7,Second,,0,2,0,0,`,
	)
	rep, err := storage.NewLoader(db, storage.LoaderOptions{}).Load(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.DuplicateKeys)
	assert.Equal(t, 1, rep.ConflictingDuplicates)
	assert.Equal(t, "Second", fetch(t, db, 7).Name)
	assert.EqualValues(t, 1, count(t, db))
}

func TestLoad_BadKeysAreNotDuplicates(t *testing.T) {
	ctx := context.Background()
	db := openCatalog(t)
	recs := records(t, header,
		`x,One,,0,1,0,0,`,
		`y,Two,,0,1,0,0,`,
		`8,Eight,,0,1,0,0,`,
	)
	rep, err := storage.NewLoader(db, storage.LoaderOptions{}).Load(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Errors)
	assert.Zero(t, rep.DuplicateKeys)
	assert.Zero(t, rep.ConflictingDuplicates)
	assert.EqualValues(t, 1, count(t, db))
}

func TestLoad_DefaultErrorDetails(t *testing.T) {
	ctx := context.Background()
	db := openCatalog(t)
	rows := []string{header}
	for i := 0; i < storage.DefaultMaxErrorDetails+2; i++ {
		rows = append(rows, `bad,Bad,,0,1,0,0,`)
	}
	rep, err := storage.NewLoader(db, storage.LoaderOptions{}).Load(ctx, records(t, rows...))
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultMaxErrorDetails+2, rep.Errors)
	assert.Len(t, rep.Failures, storage.DefaultMaxErrorDetails)
}

func TestLoad_CancelledContext(t *testing.T) {
	db := openCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := storage.NewLoader(db, storage.LoaderOptions{}).Load(ctx, records(t, header, `1,A,,0,0,0,0,`))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.Zero(t, rep.Upserted)
}
