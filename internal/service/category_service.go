package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/quiz-api/internal/errs"
	"github.com/iliyamo/quiz-api/internal/model"
	"github.com/iliyamo/quiz-api/internal/query"
	"github.com/iliyamo/quiz-api/internal/repository"
)

// ListParams are the paging and sorting knobs shared by list endpoints.
type ListParams struct {
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   query.Direction
	WithTrashed bool
}

func (p ListParams) options(with ...string) FindOptions {
	return FindOptions{SortBy: p.SortBy, SortOrder: p.SortOrder, WithTrashed: p.WithTrashed, With: with}
}

// CategoryInput is the writable part of a category.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// CategoryFilter narrows a category listing.
type CategoryFilter struct {
	ListParams
	Name string
}

type CategoryService struct {
	base Base[model.Category]
	repo *repository.CategoryRepo
	now  Clock
}

func NewCategoryService(q query.Querier, now Clock) *CategoryService {
	return &CategoryService{
		base: NewBase(q, repository.Categories),
		repo: repository.NewCategoryRepo(q),
		now:  now,
	}
}

// Get returns a category or errs.ErrNotFound.
func (s *CategoryService) Get(ctx context.Context, id int64, withTrashed bool) (*model.Category, error) {
	c, err := s.base.FindByID(ctx, id, FindOptions{WithTrashed: withTrashed})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("category %d: %w", id, errs.ErrNotFound)
	}
	return c, nil
}

// FindByName returns the live category with that exact name, or nil.
func (s *CategoryService) FindByName(ctx context.Context, name string) (*model.Category, error) {
	return s.base.FindOne(ctx, FindOptions{}, query.Eq("name", strings.TrimSpace(name)))
}

// List pages through categories, filtering by a name substring.
func (s *CategoryService) List(ctx context.Context, f CategoryFilter) (query.Page[*model.Category], error) {
	b := s.base.Query(f.options())
	if f.Name != "" {
		b = b.WhereLike("name", f.Name)
	}
	return b.Paginate(ctx, f.Page, f.PageSize)
}

// Create adds a category. Names are unique among live and trashed rows.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*model.Category, error) {
	now := s.now()
	c := &model.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, conflict(err, fmt.Sprintf("category %q", c.Name))
	}
	return c, nil
}

// Update rewrites a live category.
func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput) (*model.Category, error) {
	c, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Description = in.Description
	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, conflict(err, fmt.Sprintf("category %q", c.Name))
	}
	return c, nil
}

// Delete soft-deletes a live category.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id, false); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id, s.now())
}
