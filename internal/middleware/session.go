package middleware

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const txKey = "tx"

// Tx returns the request transaction opened by Transaction, or nil.
func Tx(c echo.Context) *sql.Tx {
	tx, _ := c.Get(txKey).(*sql.Tx)
	return tx
}

// bufferedWriter holds the response until the transaction outcome is known,
// so a failed commit can still become a 500.
type bufferedWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *bufferedWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

// Flush is a no-op; nothing leaves before commit.
func (w *bufferedWriter) Flush() {}

func (w *bufferedWriter) flushTo(out http.ResponseWriter) error {
	if w.status == 0 {
		return nil
	}
	out.WriteHeader(w.status)
	_, err := out.Write(w.body.Bytes())
	return err
}

// Transaction runs the handler inside one database transaction bounded by
// timeout. It commits when the handler returns nil with a status below 400
// and rolls back otherwise.
func Transaction(db *sql.DB, timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin transaction: %w", err)
			}

			req, res := c.Request(), c.Response()
			out := res.Writer
			buf := &bufferedWriter{ResponseWriter: out}
			res.Writer = buf
			c.SetRequest(req.WithContext(ctx))
			c.Set(txKey, tx)

			finished := false
			defer func() {
				res.Writer = out
				c.SetRequest(req)
				c.Set(txKey, nil)
				if !finished {
					_ = tx.Rollback()
					resetResponse(res)
				}
			}()

			err = next(c)
			if err != nil {
				return err
			}
			if buf.status >= http.StatusBadRequest {
				finished = true
				_ = tx.Rollback()
				return buf.flushTo(out)
			}
			if err := tx.Commit(); err != nil {
				finished = true
				resetResponse(res)
				return fmt.Errorf("commit transaction: %w", err)
			}
			finished = true
			return buf.flushTo(out)
		}
	}
}

// resetResponse lets the error handler write a fresh response after the
// buffered one was dropped.
func resetResponse(res *echo.Response) {
	res.Committed = false
	res.Status = http.StatusOK
	res.Size = 0
}
