package domain

import "context"

// Category labels transactions. A nil UserID marks a predefined category
// available to every user; ParentID allows a single level of nesting.
type Category struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Type     TransactionType `json:"type"`
	ParentID *int            `json:"parent_id,omitempty"`
	UserID   *string         `json:"user_id,omitempty"`
}

type CategoryRepository interface {
	FindAll(ctx context.Context, userID string) ([]Category, error)
	ExistsByID(ctx context.Context, categoryID int, userID string) (bool, error)
}
