package dynamo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient serves scans in fixed-size pages and records the last inputs.
type fakeClient struct {
	items    []map[string]types.AttributeValue
	pageSize int

	lastScan *dynamodb.ScanInput
	scans    int
	putErr   error
	delErr   error
}

func (f *fakeClient) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.lastScan = in
	f.scans++

	start := 0
	if in.ExclusiveStartKey != nil {
		fmt.Sscan(in.ExclusiveStartKey["offset"].(*types.AttributeValueMemberN).Value, &start)
	}
	end := start + f.pageSize
	if end > len(f.items) {
		end = len(f.items)
	}

	out := &dynamodb.ScanOutput{Items: f.items[start:end]}
	if end < len(f.items) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"offset": &types.AttributeValueMemberN{Value: fmt.Sprint(end)},
		}
	}
	return out, nil
}

func (f *fakeClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	id := in.Key["product_id"].(*types.AttributeValueMemberS).Value
	for _, item := range f.items {
		if item["product_id"].(*types.AttributeValueMemberS).Value == id {
			return &dynamodb.GetItemOutput{Item: item}, nil
		}
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.items = append(f.items, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func seed(t *testing.T, n int) *fakeClient {
	t.Helper()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	client := &fakeClient{pageSize: 10}
	for i := 0; i < n; i++ {
		p := domain.Product{
			ID:        fmt.Sprintf("PROD%03d", i),
			Name:      fmt.Sprintf("Product %d", i),
			Category:  "Skincare",
			Price:     10,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		av, err := attributevalue.MarshalMap(newProductItem(&p))
		require.NoError(t, err)
		client.items = append(client.items, av)
	}
	return client
}

func TestQueryProductsFollowsScanPages(t *testing.T) {
	client := seed(t, 25)
	repo := NewProductRepository(client, "products")

	items, total, err := repo.QueryProducts(context.Background(), domain.ProductQuery{Page: 1, Limit: 12, Sort: domain.SortNewest})
	require.NoError(t, err)

	assert.Equal(t, 3, client.scans)
	assert.Equal(t, int64(25), total)
	require.Len(t, items, 12)
	assert.Equal(t, "PROD024", items[0].ID)
	assert.Nil(t, client.lastScan.FilterExpression)
}

func TestQueryProductsLastPage(t *testing.T) {
	repo := NewProductRepository(seed(t, 25), "products")

	items, _, err := repo.QueryProducts(context.Background(), domain.ProductQuery{Page: 3, Limit: 12, Sort: domain.SortOldest})
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "PROD024", items[0].ID)
}

func TestBuildProductFilter(t *testing.T) {
	_, ok, err := buildProductFilter(domain.ProductQuery{Category: domain.AllCategories})
	require.NoError(t, err)
	assert.False(t, ok)

	expr, ok, err := buildProductFilter(domain.ProductQuery{Search: "LOT", Category: "Skincare"})
	require.NoError(t, err)
	require.True(t, ok)

	var names []string
	for _, n := range expr.Names() {
		names = append(names, n)
	}
	assert.ElementsMatch(t, []string{"name_lc", "description_lc", "category_lc", "category"}, names)

	var values []string
	for _, v := range expr.Values() {
		values = append(values, v.(*types.AttributeValueMemberS).Value)
	}
	assert.Contains(t, values, "lot")
	assert.Contains(t, values, "Skincare")
}

func TestStoredItemCarriesLowercaseCopies(t *testing.T) {
	av, err := attributevalue.MarshalMap(newProductItem(&domain.Product{ID: "p1", Name: "Lotion", Category: "SkinCare"}))
	require.NoError(t, err)

	assert.Equal(t, "lotion", av["name_lc"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "skincare", av["category_lc"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "p1", av["product_id"].(*types.AttributeValueMemberS).Value)
}

func TestGetProductNotFound(t *testing.T) {
	repo := NewProductRepository(seed(t, 1), "products")

	_, err := repo.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	p, err := repo.GetProduct(context.Background(), "PROD000")
	require.NoError(t, err)
	assert.Equal(t, "Product 0", p.Name)
}

func TestConditionalFailuresMapToSentinels(t *testing.T) {
	ccf := &types.ConditionalCheckFailedException{Message: new(string)}
	client := &fakeClient{putErr: ccf, delErr: ccf}
	repo := NewProductRepository(client, "products")

	err := repo.CreateProduct(context.Background(), &domain.Product{ID: "dup"})
	assert.ErrorIs(t, err, repository.ErrProductExists)

	err = repo.DeleteProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	client.putErr = errors.New("throttled")
	err = repo.CreateProduct(context.Background(), &domain.Product{ID: "x"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrProductExists)
}
