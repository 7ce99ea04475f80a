package domain

import (
	"time"
)

// Product is a catalog entry. Category is a free label and is not checked
// against the category collection.
type Product struct {
	ID                 string    `dynamodbav:"product_id"                    bson:"_id"                          json:"_id"`
	Name               string    `dynamodbav:"name"                          bson:"name"                         json:"name"`
	Category           string    `dynamodbav:"category"                      bson:"category"                     json:"category"`
	Price              float64   `dynamodbav:"price"                         bson:"price"                        json:"price"`
	DiscountPercentage *float64  `dynamodbav:"discount_percentage,omitempty" bson:"discountPercentage,omitempty" json:"discountPercentage,omitempty"`
	ImageURL           string    `dynamodbav:"image_url"                     bson:"imageUrl"                     json:"imageUrl"`
	Description        string    `dynamodbav:"description"                   bson:"description"                  json:"description"`
	InStock            *bool     `dynamodbav:"in_stock,omitempty"            bson:"in_stock,omitempty"           json:"in_stock,omitempty"`
	CreatedAt          time.Time `dynamodbav:"created_at"                    bson:"createdAt"                    json:"createdAt"`
	UpdatedAt          time.Time `dynamodbav:"updated_at"                    bson:"updatedAt"                    json:"updatedAt"`
}

// Available reports stock; an absent flag means in stock.
func (p Product) Available() bool {
	return p.InStock == nil || *p.InStock
}

type CreateProductRequest struct {
	Name               string   `json:"name"               binding:"required"`
	Category           string   `json:"category"           binding:"required"`
	Price              *float64 `json:"price"              binding:"required,gte=0"`
	DiscountPercentage *float64 `json:"discountPercentage" binding:"omitempty,gte=0,lte=100"`
	ImageURL           string   `json:"imageUrl"           binding:"required"`
	Description        string   `json:"description"        binding:"required"`
	InStock            *bool    `json:"in_stock"`
}

// ProductResponse is the envelope for single-product reads. Data is nil for
// unknown ids.
type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
}

type ProductListResponse struct {
	Success bool      `json:"success"`
	Data    []Product `json:"data"`
	Total   int64     `json:"total"`
	Page    int       `json:"page"`
	Pages   int       `json:"pages"`
}

type ProductsByCategoryResponse struct {
	Success bool                 `json:"success"`
	Data    map[string][]Product `json:"data"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
