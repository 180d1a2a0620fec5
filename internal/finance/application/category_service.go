package application

import (
	"context"

	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
)

type CategoryService struct {
	repo domain.CategoryRepository
}

func NewCategoryService(repo domain.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) DoesCategoryExist(ctx context.Context, categoryID int, userID string) (bool, error) {
	return s.repo.ExistsByID(ctx, categoryID, userID)
}

func (s *CategoryService) GetAllCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	categories, err := s.repo.FindAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		return []domain.Category{}, nil
	}
	return categories, nil
}
