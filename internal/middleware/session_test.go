package middleware

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/quiz-api/internal/testutil"
)

func insertCategory(c echo.Context, name string) error {
	_, err := Tx(c).ExecContext(c.Request().Context(),
		`INSERT INTO categories (name, created_at, updated_at) VALUES (?, ?, ?)`, name, time.Now(), time.Now())
	return err
}

func countCategories(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&n))
	return n
}

func TestTransaction(t *testing.T) {
	db := testutil.OpenDB(t)
	e := echo.New()
	tx := Transaction(db, 5*time.Second)

	e.POST("/ok", func(c echo.Context) error {
		if err := insertCategory(c, "kept"); err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, echo.Map{"name": "kept"})
	}, tx)
	e.POST("/invalid", func(c echo.Context) error {
		if err := insertCategory(c, "dropped-422"); err != nil {
			return err
		}
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": echo.Map{"name": "bad"}})
	}, tx)
	e.POST("/fail", func(c echo.Context) error {
		if err := insertCategory(c, "dropped-error"); err != nil {
			return err
		}
		_ = c.JSON(http.StatusOK, echo.Map{"half": "written"})
		return errors.New("boom")
	}, tx)

	cases := []struct {
		path   string
		status int
		body   string
		rows   int
	}{
		{"/ok", http.StatusCreated, `{"name":"kept"}`, 1},
		{"/invalid", http.StatusUnprocessableEntity, `{"errors":{"name":"bad"}}`, 1},
		{"/fail", http.StatusInternalServerError, `{"message":"Internal Server Error"}`, 1},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.path, nil))
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
			assert.Equal(t, tc.rows, countCategories(t, db))
		})
	}
}

func TestTransactionRollsBackOnPanic(t *testing.T) {
	db := testutil.OpenDB(t)
	e := echo.New()
	e.POST("/panic", func(c echo.Context) error {
		if err := insertCategory(c, "never"); err != nil {
			return err
		}
		panic("handler exploded")
	}, Transaction(db, 5*time.Second))
	e.Use(echomw.Recover())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, countCategories(t, db))
}
