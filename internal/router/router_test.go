package router

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/quiz-api/internal/config"
	"github.com/iliyamo/quiz-api/internal/handler"
	"github.com/iliyamo/quiz-api/internal/queue"
	"github.com/iliyamo/quiz-api/internal/service"
	"github.com/iliyamo/quiz-api/internal/testutil"
	"github.com/iliyamo/quiz-api/internal/utils"
)

type mailbox struct {
	mu   sync.Mutex
	last map[string]queue.EmailEvent
}

func (m *mailbox) PublishEmail(_ context.Context, ev queue.EmailEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[ev.To] = ev
	return nil
}

func (m *mailbox) token(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last[to].Token
}

type api struct {
	t    *testing.T
	e    *echo.Echo
	db   *sql.DB
	mail *mailbox
}

func newAPI(t *testing.T) *api {
	mail := &mailbox{last: map[string]queue.EmailEvent{}}
	db := testutil.OpenDB(t)
	e := New(Options{
		Deps: &handler.Deps{
			DB:         db,
			Tokens:     utils.TokenConfig{Secret: "router-secret", AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour, ResetTTL: time.Hour},
			BcryptCost: 4,
			Mail:       mail,
			Now:        service.SystemClock,
			Log:        zap.NewNop(),
		},
		Cache:    config.CacheConfig{Enabled: true},
		Registry: prometheus.NewRegistry(),
	})
	return &api{t: t, e: e, db: db, mail: mail}
}

func (a *api) do(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

// promote turns an account into an admin.
func (a *api) promote(email string) {
	a.t.Helper()
	_, err := a.db.Exec(`UPDATE users SET user_type = 'admin' WHERE email = ?`, email)
	require.NoError(a.t, err)
}

// signup registers, verifies and logs in, returning the access and refresh tokens.
func (a *api) signup(name, email string) (string, string) {
	a.t.Helper()
	code, _ := a.do(http.MethodPost, "/v1/auth/register", "", echo.Map{
		"name": name, "email": email, "password": "password1", "confirm_password": "password1",
	})
	require.Equal(a.t, http.StatusCreated, code)
	code, _ = a.do(http.MethodPost, "/v1/auth/verify-email", "", echo.Map{"email": email, "token": a.mail.token(email)})
	require.Equal(a.t, http.StatusOK, code)
	code, body := a.do(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": email, "password": "password1"})
	require.Equal(a.t, http.StatusOK, code)
	return body["access_token"].(string), body["refresh_token"].(string)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)
	code, body := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "quiz_http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)

	code, body := a.do(http.MethodPost, "/v1/auth/register", "", echo.Map{"email": "not-an-email"})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body["errors"], "email")
	assert.Contains(t, body["errors"], "password")

	reg := echo.Map{"name": "Ana", "email": "ana@example.com", "password": "password1", "confirm_password": "password1"}
	code, _ = a.do(http.MethodPost, "/v1/auth/register", "", reg)
	require.Equal(t, http.StatusCreated, code)
	code, _ = a.do(http.MethodPost, "/v1/auth/register", "", reg)
	require.Equal(t, http.StatusConflict, code)

	login := echo.Map{"email": "ana@example.com", "password": "password1"}
	code, _ = a.do(http.MethodPost, "/v1/auth/login", "", login)
	require.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(http.MethodPost, "/v1/auth/verify-email", "", echo.Map{"email": "ana@example.com", "token": a.mail.token("ana@example.com")})
	require.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodPost, "/v1/auth/login", "", echo.Map{"email": "ana@example.com", "password": "nope-nope"})
	require.Equal(t, http.StatusUnauthorized, code)

	code, body = a.do(http.MethodPost, "/v1/auth/login", "", login)
	require.Equal(t, http.StatusOK, code)
	access, refresh := body["access_token"].(string), body["refresh_token"].(string)
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotContains(t, body["user"], "password")

	code, _ = a.do(http.MethodGet, "/v1/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
	code, body = a.do(http.MethodGet, "/v1/me", access, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ana@example.com", body["user"].(map[string]any)["email"])

	code, body = a.do(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, code)
	fresh := body["access_token"].(string)

	code, _ = a.do(http.MethodGet, "/v1/me", access, nil)
	require.Equal(t, http.StatusUnauthorized, code)
	code, _ = a.do(http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": refresh})
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(http.MethodPost, "/v1/auth/logout", fresh, nil)
	require.Equal(t, http.StatusNoContent, code)
	code, _ = a.do(http.MethodGet, "/v1/me", fresh, nil)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestCategoryEndpoints(t *testing.T) {
	a := newAPI(t)
	token, _ := a.signup("Ana", "ana@example.com")

	code, _ := a.do(http.MethodPost, "/v1/categories", "", echo.Map{"name": "Science"})
	require.Equal(t, http.StatusUnauthorized, code)

	for i := 1; i <= 12; i++ {
		code, _ := a.do(http.MethodPost, "/v1/categories", token, echo.Map{"name": fmt.Sprintf("Category %02d", i)})
		require.Equal(t, http.StatusCreated, code)
	}
	code, body := a.do(http.MethodPost, "/v1/categories", token, echo.Map{"name": "Category 01"})
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, `conflict: category "Category 01" already exists`, body["error"])

	code, _ = a.do(http.MethodPost, "/v1/categories", token, echo.Map{"name": "x"})
	require.Equal(t, http.StatusUnprocessableEntity, code)

	code, body = a.do(http.MethodGet, "/v1/categories?page=2", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 12, body["total"])
	assert.EqualValues(t, 2, body["total_pages"])
	assert.Len(t, body["items"], 2)

	code, _ = a.do(http.MethodGet, "/v1/categories?page_size=0", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	code, _ = a.do(http.MethodGet, "/v1/categories?sort_by=password", "", nil)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodDelete, "/v1/categories/1", token, nil)
	require.Equal(t, http.StatusNoContent, code)
	code, _ = a.do(http.MethodGet, "/v1/categories/1", "", nil)
	require.Equal(t, http.StatusNotFound, code)
	code, body = a.do(http.MethodGet, "/v1/categories?page_size=100", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 11, body["total"])

	code, _ = a.do(http.MethodGet, "/v1/categories?with_trashed=true&page_size=100", "", nil)
	require.Equal(t, http.StatusForbidden, code)
	code, _ = a.do(http.MethodGet, "/v1/categories?with_trashed=true&page_size=100", token, nil)
	require.Equal(t, http.StatusForbidden, code)
	code, _ = a.do(http.MethodGet, "/v1/categories?with_trashed=1", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	a.promote("ana@example.com")
	code, body = a.do(http.MethodGet, "/v1/categories?with_trashed=true&page_size=100", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 12, body["total"])

	code, _ = a.do(http.MethodGet, "/v1/categories?page=9223372036854775807", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestQuizEndpoints(t *testing.T) {
	a := newAPI(t)
	author, _ := a.signup("Author", "author@example.com")
	player, _ := a.signup("Player", "player@example.com")

	code, body := a.do(http.MethodPost, "/v1/questions", author, echo.Map{
		"question":      "Is the earth round?",
		"question_type": "boolean",
		"choices": []echo.Map{
			{"option_text": "True", "is_correct": true},
			{"option_text": "False"},
		},
	})
	require.Equal(t, http.StatusCreated, code)
	qid := body["id"].(float64)
	var correct float64
	for _, ch := range body["choices"].([]any) {
		if m := ch.(map[string]any); m["is_correct"] == true {
			correct = m["id"].(float64)
		}
	}

	code, _ = a.do(http.MethodDelete, fmt.Sprintf("/v1/questions/%v", qid), player, nil)
	require.Equal(t, http.StatusForbidden, code)

	code, body = a.do(http.MethodPost, "/v1/quizzes", author, echo.Map{"title": "Geo basics", "question_ids": []float64{qid}})
	require.Equal(t, http.StatusCreated, code)
	quizID := body["id"].(float64)

	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/quizzes/%v", quizID), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Is the earth round?")
	assert.NotContains(t, rec.Body.String(), "is_correct")

	code, body = a.do(http.MethodPost, fmt.Sprintf("/v1/quizzes/%v/attempts", quizID), player, nil)
	require.Equal(t, http.StatusCreated, code)
	attempt := body["id"].(float64)

	code, _ = a.do(http.MethodGet, fmt.Sprintf("/v1/attempts/%v", attempt), author, nil)
	require.Equal(t, http.StatusForbidden, code)

	code, body = a.do(http.MethodPost, fmt.Sprintf("/v1/attempts/%v/submit", attempt), player, echo.Map{
		"answers": []echo.Map{{"question_id": qid, "choice_id": correct}},
	})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 100, body["score"])

	code, _ = a.do(http.MethodPost, fmt.Sprintf("/v1/attempts/%v/submit", attempt), player, echo.Map{"answers": []echo.Map{}})
	require.Equal(t, http.StatusConflict, code)
}

func TestAdminRoutesNeedAdmin(t *testing.T) {
	a := newAPI(t)
	token, _ := a.signup("Ana", "ana@example.com")

	code, _ := a.do(http.MethodPut, "/v1/admin/users/1/status", token, echo.Map{"status": "blocked"})
	require.Equal(t, http.StatusForbidden, code)
}
