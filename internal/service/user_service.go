package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/quiz-api/internal/errs"
	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
	"github.com/iliyamo/quiz-api/internal/queue"
	"github.com/iliyamo/quiz-api/internal/repository"
	"github.com/iliyamo/quiz-api/internal/utils"
)

// verifyCodeTTL bounds how long an email verification code is accepted.
const verifyCodeTTL = 24 * time.Hour

// EmailPublisher queues outbound email for the worker.
type EmailPublisher interface {
	PublishEmail(ctx context.Context, ev queue.EmailEvent) error
}

// RegisterInput creates an account.
type RegisterInput struct {
	Name            string  `json:"name" validate:"required,min=2,max=100"`
	Email           string  `json:"email" validate:"required,email,max=255"`
	PhoneNo         *string `json:"phone_no" validate:"omitempty,numeric,min=6,max=20"`
	DialCode        *string `json:"dial_code" validate:"required_with=PhoneNo,omitempty,startswith=+,max=10"`
	Password        string  `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string  `json:"confirm_password" validate:"required,eqfield=Password"`
}

// ProfileInput edits the current user.
type ProfileInput struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	PhoneNo  *string `json:"phone_no" validate:"omitempty,numeric,min=6,max=20"`
	DialCode *string `json:"dial_code" validate:"required_with=PhoneNo,omitempty,startswith=+,max=10"`
}

// ChangePasswordInput replaces a known password.
type ChangePasswordInput struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// ResetPasswordInput finishes a forgotten-password flow.
type ResetPasswordInput struct {
	Email           string `json:"email" validate:"required,email"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// UserService owns accounts: registration, verification and passwords.
type UserService struct {
	base   Base[model.User]
	repo   *repository.UserRepo
	tokens *repository.TokenRepo
	cfg    utils.TokenConfig
	cost   int
	mail   EmailPublisher
	now    Clock
	log    *zap.Logger
}

func NewUserService(q query.Querier, cfg utils.TokenConfig, bcryptCost int, mail EmailPublisher, now Clock, log *zap.Logger) *UserService {
	return &UserService{
		base:   NewBase(q, repository.Users),
		repo:   repository.NewUserRepo(q),
		tokens: repository.NewTokenRepo(q),
		cfg:    cfg,
		cost:   bcryptCost,
		mail:   mail,
		now:    now,
		log:    log,
	}
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// FindByEmail returns the live user with that address, or nil.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.base.FindOne(ctx, FindOptions{}, query.Eq("email", NormalizeEmail(email)))
}

// Get returns a live user or errs.ErrNotFound.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.base.FindByID(ctx, id, FindOptions{})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", id, errs.ErrNotFound)
	}
	return u, nil
}

// Register creates an unverified user and queues the verification code.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, err
	}
	now := s.now()
	code := utils.NewOTP()
	expires := now.Add(verifyCodeTTL)
	u := &model.User{
		Name:                 strings.TrimSpace(in.Name),
		Email:                NormalizeEmail(in.Email),
		PhoneNo:              in.PhoneNo,
		DialCode:             in.DialCode,
		Password:             hash,
		EmailVerifyToken:     &code,
		EmailVerifyExpiredAt: &expires,
		Status:               model.UserActive,
		UserType:             model.UserTypeUser,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, conflict(err, fmt.Sprintf("email %s", u.Email))
	}
	s.publish(ctx, queue.EmailEvent{Kind: queue.EmailVerify, To: u.Email, Name: u.Name, Token: code, RequestedAt: now})
	return u, nil
}

// ResendVerification issues a fresh code to an unverified user. Unknown
// or already verified addresses are ignored so the endpoint leaks nothing.
func (s *UserService) ResendVerification(ctx context.Context, email string) error {
	u, err := s.FindByEmail(ctx, email)
	if err != nil || u == nil || u.EmailVerifiedAt != nil {
		return err
	}
	now := s.now()
	code := utils.NewOTP()
	if err := s.repo.SetVerifyToken(ctx, u.ID, code, now.Add(verifyCodeTTL), now); err != nil {
		return err
	}
	s.publish(ctx, queue.EmailEvent{Kind: queue.EmailVerify, To: u.Email, Name: u.Name, Token: code, RequestedAt: now})
	return nil
}

// VerifyEmail accepts the code sent at registration.
func (s *UserService) VerifyEmail(ctx context.Context, email, code string) (*model.User, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", NormalizeEmail(email), errs.ErrNotFound)
	}
	if u.EmailVerifiedAt != nil {
		return u, nil
	}
	now := s.now()
	if u.EmailVerifyToken == nil || *u.EmailVerifyToken != strings.TrimSpace(code) ||
		u.EmailVerifyExpiredAt == nil || !now.Before(*u.EmailVerifyExpiredAt) {
		return nil, errs.FieldErrors{"token": "invalid or expired verification code"}
	}
	if err := s.repo.MarkEmailVerified(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.EmailVerifiedAt, u.EmailVerifyToken, u.EmailVerifyExpiredAt = &now, nil, nil
	return u, nil
}

// UpdateProfile edits name and phone of u.
func (s *UserService) UpdateProfile(ctx context.Context, u *model.User, in ProfileInput) (*model.User, error) {
	u.Name = strings.TrimSpace(in.Name)
	u.PhoneNo, u.DialCode = in.PhoneNo, in.DialCode
	u.UpdatedAt = s.now()
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, conflict(err, "phone number")
	}
	return u, nil
}

// ChangePassword replaces the password after checking the old one.
func (s *UserService) ChangePassword(ctx context.Context, u *model.User, in ChangePasswordInput) error {
	if !utils.VerifyPassword(u.Password, in.OldPassword) {
		return errs.FieldErrors{"old_password": "does not match"}
	}
	hash, err := utils.HashPassword(in.NewPassword, s.cost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, u.ID, hash, s.now())
}

// ForgotPassword queues a reset token for a known address and does nothing
// for unknown ones.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.FindByEmail(ctx, email)
	if err != nil || u == nil {
		return err
	}
	now := s.now()
	token, err := utils.CreateResetToken(s.cfg, u.ID, now)
	if err != nil {
		return err
	}
	s.publish(ctx, queue.EmailEvent{Kind: queue.EmailResetPassword, To: u.Email, Name: u.Name, Token: token, RequestedAt: now})
	return nil
}

// ResetPassword sets a new password from a reset token and ends every
// session of the user.
func (s *UserService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	now := s.now()
	claims, err := utils.DecodeJWTToken(s.cfg, in.Token, utils.TokenTypeReset, now)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return utils.ErrTokenInvalid
	}
	u, err := s.FindByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if u == nil || u.ID != id {
		return utils.ErrTokenInvalid
	}
	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, hash, now); err != nil {
		return err
	}
	_, err = s.tokens.RevokeAllForUser(ctx, u.ID, now)
	return err
}

// SetStatus changes the status of a user. Leaving active ends every
// session of that user.
func (s *UserService) SetStatus(ctx context.Context, id int64, status model.UserStatus) (*model.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.repo.SetStatus(ctx, id, status, now); err != nil {
		return nil, err
	}
	if status != model.UserActive {
		if _, err := s.tokens.RevokeAllForUser(ctx, id, now); err != nil {
			return nil, err
		}
	}
	u.Status, u.UpdatedAt = status, now
	return u, nil
}

// publish hands an event to the broker. Broker errors are logged, not returned.
func (s *UserService) publish(ctx context.Context, ev queue.EmailEvent) {
	if s.mail == nil {
		return
	}
	if err := s.mail.PublishEmail(ctx, ev); err != nil {
		s.log.Warn("queue email failed", zap.String("kind", string(ev.Kind)), zap.String("to", ev.To), zap.Error(err))
	}
}
