package query_test

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/quiz-api/internal/query"
)

type category struct {
	ID        int64      `db:"id"`
	Name      string     `db:"name"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type question struct {
	ID         int64      `db:"id"`
	CategoryID int64      `db:"category_id"`
	Text       string     `db:"question"`
	DeletedAt  *time.Time `db:"deleted_at"`
	Category   *category  `db:"-"`
}

type tag struct {
	Name string `db:"name"`
}

var categories = query.Entity[category]{
	Table:   "categories",
	Columns: []string{"id", "name", "deleted_at"},
	Relations: map[string]query.Relation{
		"questions": {Table: "questions", On: "questions.category_id = categories.id", Fields: []string{"question"}},
	},
}

var tags = query.Entity[tag]{Table: "tags", Columns: []string{"name"}}

func questions() query.Entity[question] {
	return query.Entity[question]{
		Table:   "questions",
		Columns: []string{"id", "category_id", "question", "deleted_at"},
		Relations: map[string]query.Relation{
			"category": {Table: "categories", On: "categories.id = questions.category_id", Fields: []string{"id", "name"}},
		},
		Loaders: map[string]query.Loader[question]{
			"category": func(ctx context.Context, q query.Querier, items []*question) error {
				ids := make([]any, 0, len(items))
				for _, it := range items {
					ids = append(ids, it.CategoryID)
				}
				cats, err := query.New(q, categories).WithTrashed().Where(query.In("id", ids...)).All(ctx)
				if err != nil {
					return err
				}
				byID := map[int64]*category{}
				for _, c := range cats {
					byID[c.ID] = c
				}
				for _, it := range items {
					it.Category = byID[it.CategoryID]
				}
				return nil
			},
		},
	}
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	stmts := []string{
		`CREATE TABLE categories (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL UNIQUE, deleted_at DATETIME NULL)`,
		`CREATE TABLE questions (id INTEGER PRIMARY KEY AUTOINCREMENT, category_id INTEGER NOT NULL, question TEXT NOT NULL, deleted_at DATETIME NULL)`,
		`CREATE TABLE tags (name TEXT NOT NULL)`,
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	return db
}

func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	gone := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cats := []struct {
		name    string
		deleted *time.Time
	}{
		{"Science & Nature", nil},
		{"Science: Computers", nil},
		{"History", nil},
		{"Old Stuff", &gone},
	}
	for _, c := range cats {
		_, err := db.Exec(`INSERT INTO categories (name, deleted_at) VALUES (?, ?)`, c.name, c.deleted)
		require.NoError(t, err)
	}
	qs := []struct {
		cat     int64
		text    string
		deleted *time.Time
	}{
		{1, "What is H2O?", nil},
		{1, "What is the speed of light?", nil},
		{2, "What does CPU stand for?", nil},
		{3, "Who was the first emperor?", nil},
		{3, "What year did it end?", &gone},
	}
	for _, q := range qs {
		_, err := db.Exec(`INSERT INTO questions (category_id, question, deleted_at) VALUES (?, ?, ?)`, q.cat, q.text, q.deleted)
		require.NoError(t, err)
	}
}

func names(cs []*category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestSoftDeletedRowsExcludedByDefault(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := context.Background()

	live, err := query.New(db, categories).OrderBy("id", query.Asc).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Science & Nature", "Science: Computers", "History"}, names(live))

	n, err := query.New(db, categories).Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	all, err := query.New(db, categories).WithTrashed().All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	first, err := query.New(db, categories).Where(query.Eq("name", "Old Stuff")).First(ctx)
	require.NoError(t, err)
	assert.Nil(t, first)
}

func TestWithTrashedStartsFromFreshQuery(t *testing.T) {
	db := openDB(t)
	seed(t, db)

	all, err := query.New(db, categories).Where(query.Eq("name", "History")).WithTrashed().All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestEntityWithoutDeletedAtHasNoSoftDeleteFilter(t *testing.T) {
	db := openDB(t)
	_, err := db.Exec(`INSERT INTO tags (name) VALUES ('a'), ('b')`)
	require.NoError(t, err)

	sql, _ := query.New(db, tags).SQL()
	assert.Equal(t, "SELECT tags.name AS name FROM tags", sql)

	n, err := query.New(db, tags).Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestWhereAccumulates(t *testing.T) {
	db := openDB(t)
	seed(t, db)

	got, err := query.New(db, categories).
		Where(query.Not("name", "History")).
		Where(query.In("id", int64(1), int64(3), int64(4))).
		All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Science & Nature"}, names(got))

	none, err := query.New(db, categories).Where(query.In("id")).All(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestWhereLikeIsCaseInsensitiveSubstring(t *testing.T) {
	db := openDB(t)
	seed(t, db)

	got, err := query.New(db, categories).WhereLike("name", "sci").OrderBy("name", query.Asc).All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Science & Nature", "Science: Computers"}, names(got))

	got, err = query.New(db, categories).WhereLike("name", "HIST").All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"History"}, names(got))
}

func TestConfigurationErrorsFailFast(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := context.Background()

	cases := map[string]struct {
		b    query.Builder[category]
		want error
	}{
		"where":          {query.New(db, categories).Where(query.Eq("nope", 1)), query.ErrUnknownField},
		"where like":     {query.New(db, categories).WhereLike("nope", "x"), query.ErrUnknownField},
		"order by":       {query.New(db, categories).OrderBy("nope", query.Asc), query.ErrUnknownField},
		"direction":      {query.New(db, categories).OrderBy("name", query.Direction("sideways")), query.ErrInvalidDirection},
		"relation":       {query.New(db, categories).WhereRelation("authors", "name", "x"), query.ErrUnknownRelation},
		"relation field": {query.New(db, categories).WhereRelationLike("questions", "secret", "x"), query.ErrUnknownField},
		"eager load":     {query.New(db, categories).With("authors"), query.ErrUnknownRelation},
		"error sticks":   {query.New(db, categories).OrderBy("nope", query.Asc).WhereLike("name", "x"), query.ErrUnknownField},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, tc.b.Err(), tc.want)

			_, err := tc.b.All(ctx)
			require.ErrorIs(t, err, tc.want)
			_, err = tc.b.First(ctx)
			require.ErrorIs(t, err, tc.want)
			_, err = tc.b.Count(ctx)
			require.ErrorIs(t, err, tc.want)
			_, err = tc.b.Paginate(ctx, 1, 10)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestOrderByReplacesPreviousSort(t *testing.T) {
	db := openDB(t)
	seed(t, db)

	got, err := query.New(db, categories).
		OrderBy("name", query.Asc).
		OrderBy("id", query.Desc).
		All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"History", "Science: Computers", "Science & Nature"}, names(got))

	sql, _ := query.New(db, categories).OrderBy("name", query.Asc).OrderBy("id", query.Desc).SQL()
	assert.Contains(t, sql, "ORDER BY categories.id DESC")
	assert.NotContains(t, sql, "categories.name ASC")
}

func TestWhereRelationJoinsOnceAndCountsDistinct(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := context.Background()

	b := query.New(db, categories).
		WhereRelationLike("questions", "question", "what").
		WhereRelationLike("questions", "question", "is")

	sql, _ := b.SQL()
	assert.Equal(t, 1, strings.Count(sql, " JOIN "))
	assert.Contains(t, sql, "SELECT DISTINCT ")

	got, err := b.OrderBy("id", query.Asc).All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Science & Nature"}, names(got))

	n, err := b.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	countSQL, _ := b.CountSQL()
	assert.Contains(t, countSQL, "COUNT(DISTINCT categories.id)")
}

func TestWhereRelationExactMatch(t *testing.T) {
	db := openDB(t)
	seed(t, db)

	got, err := query.New(db, questions()).
		WhereRelation("category", "name", "History").
		All(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Who was the first emperor?", got[0].Text)
}

func TestWithEagerLoadsRelation(t *testing.T) {
	db := openDB(t)
	seed(t, db)

	got, err := query.New(db, questions()).
		With("category").
		OrderBy("id", query.Asc).
		All(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, q := range got {
		require.NotNil(t, q.Category)
		assert.Equal(t, q.CategoryID, q.Category.ID)
	}
	assert.Equal(t, "History", got[3].Category.Name)
}

func TestPaginate(t *testing.T) {
	db := openDB(t)
	for i := 1; i <= 25; i++ {
		_, err := db.Exec(`INSERT INTO categories (name) VALUES (?)`, fmt.Sprintf("cat %02d", i))
		require.NoError(t, err)
	}
	ctx := context.Background()
	b := query.New(db, categories).OrderBy("id", query.Asc)

	sizes := []int{10, 10, 5}
	for i, want := range sizes {
		p, err := b.Paginate(ctx, i+1, 10)
		require.NoError(t, err)
		assert.Len(t, p.Items, want)
		assert.EqualValues(t, 25, p.Total)
		assert.Equal(t, 3, p.TotalPages)
		assert.Equal(t, i+1, p.Page)
		assert.Equal(t, 10, p.PageSize)
	}

	p, err := b.Paginate(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "cat 01", p.Items[0].Name)

	beyond, err := b.Paginate(ctx, 4, 10)
	require.NoError(t, err)
	assert.NotNil(t, beyond.Items)
	assert.Empty(t, beyond.Items)
	assert.EqualValues(t, 25, beyond.Total)

	huge, err := b.Paginate(ctx, math.MaxInt64/10+2, 10)
	require.NoError(t, err)
	assert.Empty(t, huge.Items)
	assert.EqualValues(t, 25, huge.Total)

	huge, err = b.Paginate(ctx, math.MaxInt, math.MaxInt)
	require.NoError(t, err)
	assert.Empty(t, huge.Items)
	assert.Equal(t, 1, huge.TotalPages)

	for _, bad := range [][2]int{{0, 10}, {-1, 10}, {1, 0}, {1, -5}} {
		_, err := b.Paginate(ctx, bad[0], bad[1])
		require.ErrorIs(t, err, query.ErrInvalidPage)
	}
}

func TestPaginateEmptyTable(t *testing.T) {
	db := openDB(t)

	p, err := query.New(db, categories).Paginate(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
	assert.Zero(t, p.Total)
	assert.Zero(t, p.TotalPages)
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{100, 1, 100},
		{25, math.MaxInt, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, query.TotalPages(tc.total, tc.pageSize), "total=%d size=%d", tc.total, tc.pageSize)
	}
	for total := int64(0); total < 60; total++ {
		for size := 1; size < 12; size++ {
			pages := query.TotalPages(total, size)
			assert.GreaterOrEqual(t, int64(pages*size), total)
			if pages > 0 {
				assert.Less(t, int64((pages-1)*size), total)
			}
		}
	}
}

func TestBuildersBranchIndependently(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := context.Background()

	base := query.New(db, categories).WhereLike("name", "science")
	baseSQL, baseArgs := base.SQL()

	left := base.Where(query.Eq("id", int64(1)))
	right := base.Where(query.Eq("id", int64(2)))

	l, err := left.All(ctx)
	require.NoError(t, err)
	r, err := right.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Science & Nature"}, names(l))
	assert.Equal(t, []string{"Science: Computers"}, names(r))

	afterSQL, afterArgs := base.SQL()
	assert.Equal(t, baseSQL, afterSQL)
	assert.Equal(t, baseArgs, afterArgs)
}

func TestSQLRendering(t *testing.T) {
	b := query.New(nil, questions()).
		WhereRelationLike("category", "name", "Sci").
		Where(query.Eq("category_id", 7), query.NotNull("question")).
		OrderBy("id", query.Desc)

	sql, args := b.SQL()
	assert.Equal(t,
		"SELECT DISTINCT questions.id AS id, questions.category_id AS category_id, questions.question AS question, questions.deleted_at AS deleted_at"+
			" FROM questions JOIN categories ON categories.id = questions.category_id"+
			" WHERE questions.deleted_at IS NULL AND LOWER(categories.name) LIKE ? AND questions.category_id = ? AND questions.question IS NOT NULL"+
			" ORDER BY questions.id DESC",
		sql)
	assert.Equal(t, []any{"%sci%", 7}, args)

	countSQL, countArgs := b.CountSQL()
	assert.Equal(t,
		"SELECT COUNT(DISTINCT questions.id) FROM questions JOIN categories ON categories.id = questions.category_id"+
			" WHERE questions.deleted_at IS NULL AND LOWER(categories.name) LIKE ? AND questions.category_id = ? AND questions.question IS NOT NULL",
		countSQL)
	assert.Equal(t, args, countArgs)
}

func TestRawCondition(t *testing.T) {
	db := openDB(t)
	seed(t, db)

	got, err := query.New(db, categories).
		Where(query.Raw("categories.id > ? AND categories.id < ?", 1, 3)).
		All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Science: Computers"}, names(got))
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]query.Direction{"": query.Asc, "asc": query.Asc, "ASC": query.Asc, "desc": query.Desc, " Desc ": query.Desc} {
		got, err := query.ParseDirection(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := query.ParseDirection("up")
	require.ErrorIs(t, err, query.ErrInvalidDirection)
}

func TestMapPage(t *testing.T) {
	p := query.Page[*category]{
		Items:      []*category{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}},
		Total:      12,
		Page:       2,
		PageSize:   2,
		TotalPages: 6,
	}
	out := query.MapPage(p, func(c *category) string { return c.Name })
	assert.Equal(t, query.Page[string]{Items: []string{"a", "b"}, Total: 12, Page: 2, PageSize: 2, TotalPages: 6}, out)
}
