package repository

import (
	"context"
	"time"

	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
)

// TokenRepo persists login sessions in `user_tokens`.
type TokenRepo struct{ db query.Querier }

func NewTokenRepo(db query.Querier) *TokenRepo { return &TokenRepo{db: db} }

// Create inserts a session row and fills its ID.
func (r *TokenRepo) Create(ctx context.Context, t *model.UserToken) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_tokens (user_id, access_token, refresh_token, ip, user_agent, expired_at,
			created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		t.UserID, t.AccessToken, t.RefreshToken, t.IP, t.UserAgent, t.ExpiredAt, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

// FindByAccessToken returns the session for a raw access token, or nil.
func (r *TokenRepo) FindByAccessToken(ctx context.Context, raw string) (*model.UserToken, error) {
	return query.New(r.db, UserTokens).Where(query.Eq("access_token", raw)).First(ctx)
}

// FindByRefreshToken returns the newest session for a raw refresh token, or nil.
func (r *TokenRepo) FindByRefreshToken(ctx context.Context, raw string) (*model.UserToken, error) {
	return query.New(r.db, UserTokens).
		Where(query.Eq("refresh_token", raw)).
		OrderBy("id", query.Desc).
		First(ctx)
}

// Expire pushes expired_at to at without revoking, so the session can
// still be refreshed.
func (r *TokenRepo) Expire(ctx context.Context, raw string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE user_tokens SET expired_at=?, updated_at=? WHERE access_token=? AND revoked_at IS NULL",
		at, at, raw)
	return err
}

// Revoke ends the session of a raw access token. It reports whether a live
// session was found.
func (r *TokenRepo) Revoke(ctx context.Context, raw string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE user_tokens SET expired_at=?, revoked_at=?, updated_at=? WHERE access_token=? AND revoked_at IS NULL",
		at, at, at, raw)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RevokeByID ends one session by primary key. It reports whether the
// session was still live, so only one of two racing callers wins.
func (r *TokenRepo) RevokeByID(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE user_tokens SET expired_at=?, revoked_at=?, updated_at=? WHERE id=? AND revoked_at IS NULL",
		at, at, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RevokeAllForUser ends every live session of a user and returns how many.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID int64, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE user_tokens SET expired_at=?, revoked_at=?, updated_at=? WHERE user_id=? AND revoked_at IS NULL",
		at, at, at, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
