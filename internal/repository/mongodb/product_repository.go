// Package mongodb stores the catalog in MongoDB collections.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func NewClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection("products")}
}

// productFilter ANDs a case-insensitive regex OR-group with the category
// equality. The search text is quoted so it always matches literally.
func productFilter(q domain.ProductQuery) bson.M {
	filter := bson.M{}
	if q.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(q.Search), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"category": pattern},
		}
	}
	if c, ok := q.CategoryFilter(); ok {
		filter["category"] = c
	}
	return filter
}

func sortDoc(order domain.SortOrder) bson.D {
	dir := -1
	if order == domain.SortOldest {
		dir = 1
	}
	return bson.D{{Key: "createdAt", Value: dir}, {Key: "_id", Value: dir}}
}

func (r *ProductRepository) QueryProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, int64, error) {
	filter := productFilter(q)

	opts := options.Find().
		SetSort(sortDoc(q.Sort)).
		SetSkip(int64(q.Skip())).
		SetLimit(int64(q.Limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find products: %w", err)
	}

	products := []domain.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	return products, total, nil
}

func (r *ProductRepository) ListProducts(ctx context.Context, order domain.SortOrder) ([]domain.Product, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(sortDoc(order)))
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	var products []domain.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrProductExists
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": productID})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrProductNotFound
	}
	return nil
}

type CategoryRepository struct {
	collection *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{collection: db.Collection("categories")}
}

// 카테고리 이름은 유일해야 함
var categoryNameIndex = mongo.IndexModel{
	Keys:    bson.D{{Key: "name", Value: 1}},
	Options: options.Index().SetName("name_unique").SetUnique(true),
}

// EnsureIndexes creates the unique name index CreateCategory relies on.
func (r *CategoryRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.collection.Indexes().CreateOne(ctx, categoryNameIndex); err != nil {
		return fmt.Errorf("failed to create category index: %w", err)
	}
	return nil
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find categories: %w", err)
	}

	var categories []domain.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	_, err := r.collection.InsertOne(ctx, category)
	return insertCategoryError(err)
}

func insertCategoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrCategoryExists
	default:
		return fmt.Errorf("failed to insert category: %w", err)
	}
}
