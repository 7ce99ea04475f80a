package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
)

type CategoryRepository struct {
	client    API
	tableName string
}

func NewCategoryRepository(client API, tableName string) *CategoryRepository {
	return &CategoryRepository{
		client:    client,
		tableName: tableName,
	}
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan categories: %w", err)
		}

		var page []domain.Category
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
		}
		categories = append(categories, page...)
	}

	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	av, err := attributevalue.MarshalMap(category)
	if err != nil {
		return fmt.Errorf("failed to marshal category: %w", err)
	}

	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("name"))).
		Build()
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     av,
		ConditionExpression:      cond.Condition(),
		ExpressionAttributeNames: cond.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return repository.ErrCategoryExists
		}
		return fmt.Errorf("failed to put item: %w", err)
	}

	return nil
}
