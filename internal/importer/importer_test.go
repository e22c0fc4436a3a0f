package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/service"
	"github.com/iliyamo/quiz-api/internal/testutil"
)

const batch = `{
  "response_code": 0,
  "results": [
    {"type":"multiple","difficulty":"medium","category":"Science &amp; Nature",
     "question":"What is the chemical symbol for &quot;gold&quot;?",
     "correct_answer":"Au","incorrect_answers":["Ag","Gd","Go"]},
    {"type":"boolean","difficulty":"easy","category":"Science &amp; Nature",
     "question":"Water boils at 100&deg;C at sea level.",
     "correct_answer":"True","incorrect_answers":["False"]},
    {"type":"boolean","difficulty":"weird","category":"History",
     "question":"The Berlin Wall fell in 1989.",
     "correct_answer":"True","incorrect_answers":["False"]},
    {"type":"essay","difficulty":"hard","category":"History",
     "question":"Explain the French Revolution.",
     "correct_answer":"...","incorrect_answers":[]}
  ]
}`

func opentdb(t *testing.T, body string) (*httptest.Server, <-chan url.Values) {
	t.Helper()
	queries := make(chan url.Values, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, queries
}

func clock() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }

func TestFetchUnescapes(t *testing.T) {
	srv, queries := opentdb(t, batch)
	items, err := NewClient(srv.URL).Fetch(context.Background(), 4, 17)
	require.NoError(t, err)
	require.Len(t, items, 4)

	params := <-queries
	assert.Equal(t, "4", params.Get("amount"))
	assert.Equal(t, "17", params.Get("category"))
	assert.Equal(t, "Science & Nature", items[0].Category)
	assert.Equal(t, `What is the chemical symbol for "gold"?`, items[0].Question)
	assert.Equal(t, "Water boils at 100°C at sea level.", items[1].Question)
	assert.Equal(t, []string{"False"}, items[1].IncorrectAnswers)
}

func TestFetchErrors(t *testing.T) {
	srv, _ := opentdb(t, `{"response_code":1,"results":[]}`)
	_, err := NewClient(srv.URL).Fetch(context.Background(), 5, 0)
	require.ErrorContains(t, err, "response code 1")

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer down.Close()
	_, err = NewClient(down.URL).Fetch(context.Background(), 5, 0)
	require.ErrorContains(t, err, "HTTP 429")
}

func TestImportSkipsDuplicates(t *testing.T) {
	db := testutil.OpenDB(t)
	srv, _ := opentdb(t, batch)
	ctx := context.Background()
	im := New(NewClient(srv.URL), clock, zap.NewNop())

	res, err := im.Import(ctx, db, nil, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, Result{Fetched: 4, Inserted: 3, Skipped: 1}, res)

	questions := service.NewQuestionService(db, clock)
	q, err := questions.FindByText(ctx, `What is the chemical symbol for "gold"?`)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, model.MultipleChoice, q.QuestionType)
	assert.Equal(t, model.Medium, q.Difficulty)
	assert.Equal(t, model.StatusActive, q.Status)
	require.NotNil(t, q.References)
	assert.Equal(t, "opentdb.com", *q.References)

	wall, err := questions.FindByText(ctx, "The Berlin Wall fell in 1989.")
	require.NoError(t, err)
	require.NotNil(t, wall)
	assert.Equal(t, model.Easy, wall.Difficulty)

	cat, err := service.NewCategoryService(db, clock).FindByName(ctx, "Science & Nature")
	require.NoError(t, err)
	require.NotNil(t, cat)
	assert.Equal(t, cat.ID, *q.CategoryID)

	res, err = im.Import(ctx, db, nil, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, Result{Fetched: 4, Inserted: 0, Skipped: 4}, res)
}
