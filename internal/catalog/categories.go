package catalog

import (
	"context"
	"errors"
	"fmt"

	"kanalyab/internal/core/database"
	"kanalyab/internal/core/models"
	"kanalyab/internal/core/validation"
)

func (in *CategoryInput) clean() error {
	in.Name = validation.CleanString(in.Name)
	in.Icon = validation.CleanString(in.Icon)
	in.Color = validation.CleanString(in.Color)
	if err := validation.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// GetCategory returns one category.
func (s *Service) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	return c, err
}

// CreateCategory adds a category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := in.clean(); err != nil {
		return nil, err
	}
	c := &models.Category{Name: in.Name, Icon: in.Icon, Color: in.Color}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Int("category_id", c.ID).Str("name", c.Name).Msg("category created")
	return c, nil
}

// UpdateCategory replaces a category's name, icon and color.
func (s *Service) UpdateCategory(ctx context.Context, id int, in CategoryInput) (*models.Category, error) {
	if err := in.clean(); err != nil {
		return nil, err
	}
	c := models.Category{ID: id, Name: in.Name, Icon: in.Icon, Color: in.Color}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// DeleteCategory removes a category that nothing references.
func (s *Service) DeleteCategory(ctx context.Context, id int) error {
	switch err := s.store.DeleteCategory(ctx, id); {
	case errors.Is(err, database.ErrNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, database.ErrCategoryInUse):
		return ErrCategoryInUse
	case err != nil:
		return err
	}
	s.logger.Info().Int("category_id", id).Msg("category deleted")
	return nil
}
