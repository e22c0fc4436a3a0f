package model

import "time"

// UserStatus is users.status.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
	UserBlocked  UserStatus = "blocked"
)

// UserType is users.user_type.
type UserType string

const (
	UserTypeAdmin UserType = "admin"
	UserTypeUser  UserType = "user"
)

// User mirrors the `users` table. Secrets never leave the API.
type User struct {
	ID                   int64      `db:"id" json:"id"`
	Name                 string     `db:"name" json:"name"`
	Email                string     `db:"email" json:"email"`
	PhoneNo              *string    `db:"phone_no" json:"phone_no"`
	DialCode             *string    `db:"dial_code" json:"dial_code"`
	Password             string     `db:"password" json:"-"`
	EmailVerifiedAt      *time.Time `db:"email_verified_at" json:"email_verified_at"`
	EmailVerifyToken     *string    `db:"email_verify_token" json:"-"`
	EmailVerifyExpiredAt *time.Time `db:"email_verify_expired_at" json:"-"`
	Status               UserStatus `db:"status" json:"status"`
	UserType             UserType   `db:"user_type" json:"user_type"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt            *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// IsAdmin reports whether the user has the admin type.
func (u *User) IsAdmin() bool { return u.UserType == UserTypeAdmin }

// UserToken is one persisted login session in `user_tokens`.
//
// ExpiredAt is the server-side validity of the access token and is
// independent of the JWT's own exp claim; pushing it to "now" revokes the
// session. RevokedAt is set only by an explicit logout or a refresh rotation,
// so an access token that merely aged out can still be refreshed.
type UserToken struct {
	ID           int64      `db:"id" json:"id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	AccessToken  string     `db:"access_token" json:"-"`
	RefreshToken string     `db:"refresh_token" json:"-"`
	IP           *string    `db:"ip" json:"ip"`
	UserAgent    *string    `db:"user_agent" json:"user_agent"`
	ExpiredAt    time.Time  `db:"expired_at" json:"expired_at"`
	RevokedAt    *time.Time `db:"revoked_at" json:"revoked_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the session is usable at now.
func (t *UserToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiredAt)
}
