package dto

import "github.com/spec-kit/helpdesk-service/internal/domain"

// CategoryRequest payload for create and rename.
type CategoryRequest struct {
	Name string `json:"nombre" validate:"required,max=100"`
}

// CategoryResponse view.
type CategoryResponse struct {
	ID   int64  `json:"id_categoria"`
	Name string `json:"nombre"`
}

// NewCategoryResponse maps a category.
func NewCategoryResponse(category domain.Category) CategoryResponse {
	return CategoryResponse{ID: category.ID, Name: category.Name}
}

// NewCategoryList maps categories.
func NewCategoryList(categories []domain.Category) []CategoryResponse {
	items := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		items = append(items, NewCategoryResponse(category))
	}
	return items
}
