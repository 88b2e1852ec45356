package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/catalog-api/internal/core/domain"
	"github.com/storefront/catalog-api/internal/core/ports"
)

type CategoryService struct {
	repo ports.CategoryRepository
	log  zerolog.Logger
}

func NewCategoryService(repo ports.CategoryRepository, log zerolog.Logger) *CategoryService {
	return &CategoryService{repo: repo, log: log}
}

func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (*domain.Category, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, input ports.CategoryInput) (*domain.Category, error) {
	name := trimmed(input.Name)
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}

	now := time.Now().UTC()
	return s.repo.Create(ctx, &domain.Category{
		Name:        name,
		Description: nonEmpty(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Update changes only the fields that are present and non-empty.
func (s *CategoryService) Update(ctx context.Context, id int64, input ports.CategoryInput) (*domain.Category, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := trimmed(input.Name); name != "" {
		c.Name = name
	}
	if desc := nonEmpty(input.Description); desc != nil {
		c.Description = desc
	}
	c.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, c)
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("category_id", id).Msg("category deleted")
	return nil
}

type TagService struct {
	repo ports.TagRepository
	log  zerolog.Logger
}

func NewTagService(repo ports.TagRepository, log zerolog.Logger) *TagService {
	return &TagService{repo: repo, log: log}
}

func (s *TagService) List(ctx context.Context) ([]*domain.Tag, error) {
	return s.repo.List(ctx)
}

func (s *TagService) Get(ctx context.Context, id int64) (*domain.Tag, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *TagService) Create(ctx context.Context, name string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	return s.repo.Create(ctx, &domain.Tag{Name: name})
}

func (s *TagService) Update(ctx context.Context, id int64, name *string) (*domain.Tag, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n := trimmed(name); n != "" {
		t.Name = n
	}
	return s.repo.Update(ctx, t)
}

func (s *TagService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("tag_id", id).Msg("tag deleted")
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// nonEmpty returns a trimmed copy of s, or nil when s is nil or blank.
func nonEmpty(s *string) *string {
	v := trimmed(s)
	if v == "" {
		return nil
	}
	return &v
}
