package domain

import "time"

type Category struct {
	Name      string    `dynamodbav:"name"       bson:"name"      json:"name"`
	CreatedAt time.Time `dynamodbav:"created_at" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `dynamodbav:"updated_at" bson:"updatedAt" json:"updatedAt"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type CategoryResponse struct {
	Success bool      `json:"success"`
	Data    *Category `json:"data"`
}

type CategoryListResponse struct {
	Success bool       `json:"success"`
	Data    []Category `json:"data"`
}
