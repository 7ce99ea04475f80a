package mongodb

import (
	"errors"
	"testing"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestProductFilterEmpty(t *testing.T) {
	assert.Empty(t, productFilter(domain.ProductQuery{}))
	assert.Empty(t, productFilter(domain.ProductQuery{Category: domain.AllCategories}))
}

func TestProductFilterSearchAndCategory(t *testing.T) {
	f := productFilter(domain.ProductQuery{Search: "c++", Category: "Books"})

	assert.Equal(t, "Books", f["category"])

	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)

	name := or[0].(bson.M)["name"].(bson.M)
	assert.Equal(t, `c\+\+`, name["$regex"])
	assert.Equal(t, "i", name["$options"])
}

func TestSortDoc(t *testing.T) {
	assert.Equal(t, -1, sortDoc(domain.SortNewest)[0].Value)
	assert.Equal(t, 1, sortDoc(domain.SortOldest)[0].Value)
	assert.Equal(t, "createdAt", sortDoc(domain.SortOldest)[0].Key)
}

func TestInsertCategoryError(t *testing.T) {
	assert.NoError(t, insertCategoryError(nil))

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
	assert.ErrorIs(t, insertCategoryError(dup), repository.ErrCategoryExists)

	other := insertCategoryError(errors.New("connection reset"))
	assert.NotErrorIs(t, other, repository.ErrCategoryExists)
	assert.ErrorContains(t, other, "failed to insert category")
}

func TestCategoryNameIndexIsUnique(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "name", Value: 1}}, categoryNameIndex.Keys)
	require.NotNil(t, categoryNameIndex.Options.Unique)
	assert.True(t, *categoryNameIndex.Options.Unique)
}
