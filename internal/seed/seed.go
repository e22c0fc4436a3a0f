// Package seed loads the bootstrap users and trivia categories.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/iliyamo/quiz-api/internal/errs"
	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
	"github.com/iliyamo/quiz-api/internal/repository"
	"github.com/iliyamo/quiz-api/internal/service"
	"github.com/iliyamo/quiz-api/internal/utils"
)

//go:embed seed.yaml
var defaultSeed []byte

type User struct {
	Name     string         `yaml:"name"`
	Email    string         `yaml:"email"`
	Password string         `yaml:"password"`
	PhoneNo  string         `yaml:"phone_no"`
	DialCode string         `yaml:"dial_code"`
	UserType model.UserType `yaml:"user_type"`
}

// File is the shape of a seed document.
type File struct {
	Users      []User   `yaml:"users"`
	Categories []string `yaml:"categories"`
}

// Result counts the rows a run created.
type Result struct {
	Users      int
	Categories int
}

// Parse expands ${VAR} references from the environment and decodes a seed
// document.
func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// Default returns the embedded seed document.
func Default() (*File, error) { return Parse(defaultSeed) }

type Seeder struct {
	q          query.Querier
	bcryptCost int
	now        service.Clock
	log        *zap.Logger
}

func New(q query.Querier, bcryptCost int, now service.Clock, log *zap.Logger) *Seeder {
	return &Seeder{q: q, bcryptCost: bcryptCost, now: now, log: log}
}

// Run inserts whatever in f is missing. Existing emails and category names
// are left untouched, so running it twice is harmless.
func (s *Seeder) Run(ctx context.Context, f *File) (Result, error) {
	var res Result
	users := service.NewUserService(s.q, utils.TokenConfig{}, s.bcryptCost, nil, s.now, s.log)
	repo := repository.NewUserRepo(s.q)

	for _, u := range f.Users {
		if u.Password == "" {
			s.log.Warn("seed user has no password, skipping", zap.String("email", u.Email))
			continue
		}
		email := service.NormalizeEmail(u.Email)
		existing, err := users.FindByEmail(ctx, email)
		if err != nil {
			return res, err
		}
		if existing != nil {
			continue
		}
		hash, err := utils.HashPassword(u.Password, s.bcryptCost)
		if err != nil {
			return res, err
		}
		now := s.now()
		row := &model.User{
			Name:            u.Name,
			Email:           email,
			PhoneNo:         optional(u.PhoneNo),
			DialCode:        optional(u.DialCode),
			Password:        hash,
			EmailVerifiedAt: &now,
			Status:          model.UserActive,
			UserType:        u.UserType,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if row.UserType == "" {
			row.UserType = model.UserTypeUser
		}
		if err := repo.Create(ctx, row); err != nil {
			if errors.Is(err, errs.ErrConflict) {
				s.log.Warn("seed user clashes with a deleted account", zap.String("email", email))
				continue
			}
			return res, fmt.Errorf("seed user %s: %w", email, err)
		}
		res.Users++
	}

	categories := service.NewCategoryService(s.q, s.now)
	for _, name := range f.Categories {
		c, err := categories.FindByName(ctx, name)
		if err != nil {
			return res, err
		}
		if c != nil {
			continue
		}
		if _, err := categories.Create(ctx, service.CategoryInput{Name: name}); err != nil {
			return res, err
		}
		res.Categories++
	}

	s.log.Info("seed complete", zap.Int("users", res.Users), zap.Int("categories", res.Categories))
	return res, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
