package infrastructure

import (
	"context"
	"database/sql"

	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
	financeErrors "github.com/mkrzemien/BudgetManager/internal/finance/errors"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindAll returns the predefined categories plus the user's own.
func (r *CategoryRepository) FindAll(ctx context.Context, userID string) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, parent_id, user_id FROM categories
		 WHERE user_id IS NULL OR user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, financeErrors.NewStorageError("category listing", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Type, &category.ParentID, &category.UserID); err != nil {
			return nil, financeErrors.NewStorageError("category listing", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, financeErrors.NewStorageError("category listing", err)
	}
	return categories, nil
}

func (r *CategoryRepository) ExistsByID(ctx context.Context, categoryID int, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1 AND (user_id IS NULL OR user_id = $2))`,
		categoryID, userID).Scan(&exists)
	if err != nil {
		return false, financeErrors.NewStorageError("category lookup", err)
	}
	return exists, nil
}
