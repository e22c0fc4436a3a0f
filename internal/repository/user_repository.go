package repository

import (
	"context"
	"time"

	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
)

// UserRepo writes the `users` table.
type UserRepo struct{ db query.Querier }

func NewUserRepo(db query.Querier) *UserRepo { return &UserRepo{db: db} }

// Create inserts u and fills its ID. Duplicate email or phone yields errs.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, phone_no, dial_code, password, email_verified_at,
			email_verify_token, email_verify_expired_at, status, user_type, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.Name, u.Email, u.PhoneNo, u.DialCode, u.Password, u.EmailVerifiedAt,
		u.EmailVerifyToken, u.EmailVerifyExpiredAt, string(u.Status), string(u.UserType), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return translate(err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

// UpdateProfile rewrites the editable profile columns.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET name=?, phone_no=?, dial_code=?, updated_at=? WHERE id=?",
		u.Name, u.PhoneNo, u.DialCode, u.UpdatedAt, u.ID)
	return translate(err)
}

// UpdatePassword stores a new bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET password=?, updated_at=? WHERE id=?",
		hash, at, id)
	return err
}

// SetVerifyToken stores a pending email verification code.
func (r *UserRepo) SetVerifyToken(ctx context.Context, id int64, token string, expires, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET email_verify_token=?, email_verify_expired_at=?, updated_at=? WHERE id=?",
		token, expires, at, id)
	return err
}

// MarkEmailVerified stamps email_verified_at and clears the pending code.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified_at=?, email_verify_token=NULL, email_verify_expired_at=NULL,
			updated_at=? WHERE id=?`,
		at, at, id)
	return err
}

// SetStatus changes the account status.
func (r *UserRepo) SetStatus(ctx context.Context, id int64, status model.UserStatus, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET status=?, updated_at=? WHERE id=?",
		string(status), at, id)
	return err
}
