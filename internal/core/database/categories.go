package database

import (
	"context"
	"fmt"

	"kanalyab/internal/core/models"

	"github.com/jmoiron/sqlx"
)

// ListCategories returns every category ordered by id.
func (s *DBStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	query := `SELECT category_id, name, icon, color FROM categories ORDER BY category_id`
	if err := s.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns one category or ErrNotFound.
func (s *DBStore) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	var c models.Category
	query := `SELECT category_id, name, icon, color FROM categories WHERE category_id = $1`
	if err := s.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// CategoryExists reports whether a category with id exists.
func (s *DBStore) CategoryExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM categories WHERE category_id = $1)`
	if err := s.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return exists, nil
}

// CreateCategory inserts c and sets its id.
func (s *DBStore) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `INSERT INTO categories (name, icon, color) VALUES ($1, $2, $3) RETURNING category_id`
	if err := s.db.QueryRowxContext(ctx, query, c.Name, c.Icon, c.Color).Scan(&c.ID); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// UpdateCategory overwrites name, icon and color.
func (s *DBStore) UpdateCategory(ctx context.Context, c models.Category) error {
	query := `UPDATE categories SET name = $1, icon = $2, color = $3 WHERE category_id = $4`
	res, err := s.db.ExecContext(ctx, query, c.Name, c.Icon, c.Color, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return expectOneRow(res)
}

// DeleteCategory removes a category unless a channel or submission still
// references it.
func (s *DBStore) DeleteCategory(ctx context.Context, id int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var inUse bool
		err := tx.GetContext(ctx, &inUse, `SELECT EXISTS (SELECT 1 FROM channels WHERE category_id = $1)`, id)
		if err != nil {
			return fmt.Errorf("check category usage: %w", err)
		}
		if inUse {
			return ErrCategoryInUse
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE category_id = $1`, id)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return ErrCategoryInUse
			}
			return fmt.Errorf("delete category: %w", err)
		}
		return expectOneRow(res)
	})
}
