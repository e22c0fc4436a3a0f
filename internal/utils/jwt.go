package utils // package utils provides helpers for token minting and password hashing

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/quiz-api/internal/errs"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeReset   = "reset"
)

// Decode failures. All of them are authorization errors.
var (
	ErrTokenExpired = fmt.Errorf("%w: token has expired", errs.ErrUnauthorized)
	ErrTokenInvalid = fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
	ErrTokenType    = fmt.Errorf("%w: wrong token type", errs.ErrUnauthorized)
)

// TokenConfig is the signing setup shared by every token kind.
type TokenConfig struct {
	Secret     string
	Algorithm  string // HS256, HS384 or HS512
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
}

// Claims are the registered claims plus the token type.
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is what a login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (c TokenConfig) method() (*jwt.SigningMethodHMAC, error) {
	alg := c.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	m, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported JWT algorithm %q", alg)
	}
	return m, nil
}

func sign(cfg TokenConfig, subject, typ string, now, exp time.Time) (string, error) {
	m, err := cfg.method()
	if err != nil {
		return "", err
	}
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(), // two logins in the same second still differ
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(m, claims).SignedString([]byte(cfg.Secret))
}

// CreateJWTToken mints an access and a refresh token for subject. A
// positive override replaces both configured lifetimes.
func CreateJWTToken(cfg TokenConfig, subject string, now time.Time, override time.Duration) (TokenPair, error) {
	accessExp := now.Add(cfg.AccessTTL)
	refreshExp := now.Add(cfg.RefreshTTL)
	if override > 0 {
		accessExp, refreshExp = now.Add(override), now.Add(override)
	}
	access, err := sign(cfg, subject, TokenTypeAccess, now, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := sign(cfg, subject, TokenTypeRefresh, now, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, AccessExp: accessExp, RefreshExp: refreshExp}, nil
}

// CreateResetToken mints a password reset token whose subject is the user id.
func CreateResetToken(cfg TokenConfig, userID int64, now time.Time) (string, error) {
	ttl := cfg.ResetTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return sign(cfg, strconv.FormatInt(userID, 10), TokenTypeReset, now, now.Add(ttl))
}

// DecodeJWTToken verifies signature, algorithm and expiry at now, then
// checks that the token has the wanted type.
func DecodeJWTToken(cfg TokenConfig, raw, want string, now time.Time) (*Claims, error) {
	m, err := cfg.method()
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	_, err = jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return []byte(cfg.Secret), nil },
		jwt.WithValidMethods([]string{m.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Type != want {
		return nil, ErrTokenType
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
