package application

import (
	"context"

	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
)

type MockCategoryService struct {
	Existing   map[int]bool
	Categories []domain.Category
}

func (m *MockCategoryService) DoesCategoryExist(_ context.Context, categoryID int, _ string) (bool, error) {
	if m.Existing == nil {
		return true, nil
	}
	return m.Existing[categoryID], nil
}

func (m *MockCategoryService) GetAllCategories(_ context.Context, _ string) ([]domain.Category, error) {
	return m.Categories, nil
}
