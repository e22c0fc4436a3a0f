package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/iliyamo/quiz-api/internal/errs"
	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
	"github.com/iliyamo/quiz-api/internal/repository"
	"github.com/iliyamo/quiz-api/internal/utils"
)

// Authentication failures, all in the unauthorized category.
var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", errs.ErrUnauthorized)
	ErrEmailNotVerified   = fmt.Errorf("%w: email address is not verified", errs.ErrUnauthorized)
	ErrUserNotFound       = fmt.Errorf("%w: user not found", errs.ErrUnauthorized)
	ErrSessionNotFound    = fmt.Errorf("%w: session not found", errs.ErrUnauthorized)
	ErrSessionExpired     = fmt.Errorf("%w: session has expired", errs.ErrUnauthorized)
)

// ClientInfo describes the device a session is issued to.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// Session is the token pair handed to a client.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    int64  `json:"expires_at"`
}

// AuthService runs the session lifecycle: login, authentication, refresh
// and revocation. Sessions live in user_tokens; a JWT alone is not enough.
type AuthService struct {
	users  Base[model.User]
	tokens *repository.TokenRepo
	cfg    utils.TokenConfig
	now    Clock
}

func NewAuthService(q query.Querier, cfg utils.TokenConfig, now Clock) *AuthService {
	return &AuthService{
		users:  NewBase(q, repository.Users),
		tokens: repository.NewTokenRepo(q),
		cfg:    cfg,
		now:    now,
	}
}

func inactive(u *model.User) error {
	if u.Status == model.UserActive {
		return nil
	}
	return fmt.Errorf("%w: your account is %s", errs.ErrInactive, u.Status)
}

func (s *AuthService) userByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.users.FindOne(ctx, FindOptions{}, query.Eq("email", NormalizeEmail(email)))
}

// Login checks credentials and opens a session for the client.
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (Session, *model.User, error) {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return Session{}, nil, err
	}
	if u == nil || !utils.VerifyPassword(u.Password, password) {
		return Session{}, nil, ErrInvalidCredentials
	}
	if u.EmailVerifiedAt == nil {
		return Session{}, nil, ErrEmailNotVerified
	}
	if err := inactive(u); err != nil {
		return Session{}, nil, err
	}
	sess, err := s.issue(ctx, u, client)
	if err != nil {
		return Session{}, nil, err
	}
	return sess, u, nil
}

// issue mints a pair for u and persists the session record. The record's
// expired_at is the server-side access lifetime, computed here.
func (s *AuthService) issue(ctx context.Context, u *model.User, client ClientInfo) (Session, error) {
	now := s.now()
	pair, err := utils.CreateJWTToken(s.cfg, u.Email, now, 0)
	if err != nil {
		return Session{}, err
	}
	rec := &model.UserToken{
		UserID:       u.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		IP:           optional(client.IP),
		UserAgent:    optional(truncate(client.UserAgent, 255)),
		ExpiredAt:    now.Add(s.cfg.AccessTTL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.tokens.Create(ctx, rec); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	return Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresAt:    pair.AccessExp.Unix(),
	}, nil
}

// Authenticate resolves a raw access token to its user and session.
//
// The JWT must verify and carry type=access; when its own exp has passed
// the stored session is marked expired as well. The subject must name an
// active user, and the session record must exist and be unexpired at now.
// Both expiry checks are independent: a revoked session fails here even
// though its JWT still verifies.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*model.User, *model.UserToken, error) {
	now := s.now()
	claims, err := utils.DecodeJWTToken(s.cfg, raw, utils.TokenTypeAccess, now)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			if xerr := s.tokens.Expire(ctx, raw, now); xerr != nil {
				return nil, nil, fmt.Errorf("expire session: %w", xerr)
			}
		}
		return nil, nil, err
	}
	u, err := s.userByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, nil, err
	}
	if u == nil {
		return nil, nil, ErrUserNotFound
	}
	if err := inactive(u); err != nil {
		return nil, nil, err
	}
	rec, err := s.tokens.FindByAccessToken(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, ErrSessionNotFound
	}
	if !rec.Active(now) {
		return nil, nil, ErrSessionExpired
	}
	return u, rec, nil
}

// Refresh trades a refresh token for a new pair. The token must belong to
// a session that was not revoked; that session is rotated out.
func (s *AuthService) Refresh(ctx context.Context, raw string, client ClientInfo) (Session, error) {
	now := s.now()
	claims, err := utils.DecodeJWTToken(s.cfg, raw, utils.TokenTypeRefresh, now)
	if err != nil {
		return Session{}, err
	}
	rec, err := s.tokens.FindByRefreshToken(ctx, raw)
	if err != nil {
		return Session{}, err
	}
	if rec == nil {
		return Session{}, ErrSessionNotFound
	}
	if rec.RevokedAt != nil {
		return Session{}, ErrSessionExpired
	}
	u, err := s.userByEmail(ctx, claims.Subject)
	if err != nil {
		return Session{}, err
	}
	if u == nil || u.ID != rec.UserID {
		return Session{}, ErrUserNotFound
	}
	if err := inactive(u); err != nil {
		return Session{}, err
	}
	rotated, err := s.tokens.RevokeByID(ctx, rec.ID, now)
	if err != nil {
		return Session{}, err
	}
	if !rotated {
		return Session{}, ErrSessionExpired
	}
	return s.issue(ctx, u, client)
}

// Revoke ends the session of a raw access token.
func (s *AuthService) Revoke(ctx context.Context, raw string) error {
	ok, err := s.tokens.Revoke(ctx, raw, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// RevokeAll ends every live session of a user and returns how many.
func (s *AuthService) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	return s.tokens.RevokeAllForUser(ctx, userID, s.now())
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
