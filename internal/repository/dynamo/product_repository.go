package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/cloud-wave-best-zizon/catalog-service/internal/repository"
	pkgconfig "github.com/cloud-wave-best-zizon/catalog-service/pkg/config"
)

// API is the subset of the DynamoDB client the repositories use.
type API interface {
	dynamodb.ScanAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// productItem is the stored shape. The *_lc attributes hold lowercased
// copies because DynamoDB's contains() is case-sensitive.
type productItem struct {
	domain.Product
	NameLC        string `dynamodbav:"name_lc"`
	DescriptionLC string `dynamodbav:"description_lc"`
	CategoryLC    string `dynamodbav:"category_lc"`
}

func newProductItem(p *domain.Product) productItem {
	return productItem{
		Product:       *p,
		NameLC:        strings.ToLower(p.Name),
		DescriptionLC: strings.ToLower(p.Description),
		CategoryLC:    strings.ToLower(p.Category),
	}
}

type ProductRepository struct {
	client    API
	tableName string
}

func NewDynamoDBClient(ctx context.Context, cfg *pkgconfig.Config) (*dynamodb.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.AWSRegion),
	}
	// dynamodb-local은 자격 증명 검증을 하지 않음
	if cfg.DynamoDBEndpoint != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	}), nil
}

func NewProductRepository(client API, tableName string) *ProductRepository {
	return &ProductRepository{
		client:    client,
		tableName: tableName,
	}
}

// buildProductFilter translates the search OR-group and category clause into
// a filter expression. ok is false when the query filters nothing.
func buildProductFilter(q domain.ProductQuery) (expr expression.Expression, ok bool, err error) {
	var conds []expression.ConditionBuilder

	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		conds = append(conds, expression.Or(
			expression.Name("name_lc").Contains(needle),
			expression.Name("description_lc").Contains(needle),
			expression.Name("category_lc").Contains(needle),
		))
	}
	if c, has := q.CategoryFilter(); has {
		conds = append(conds, expression.Name("category").Equal(expression.Value(c)))
	}

	switch len(conds) {
	case 0:
		return expression.Expression{}, false, nil
	case 1:
		expr, err = expression.NewBuilder().WithFilter(conds[0]).Build()
	default:
		expr, err = expression.NewBuilder().WithFilter(expression.And(conds[0], conds[1], conds[2:]...)).Build()
	}
	if err != nil {
		return expression.Expression{}, false, fmt.Errorf("failed to build filter: %w", err)
	}
	return expr, true, nil
}

// QueryProducts scans the table with the filter pushed down, then sorts and
// slices in memory. DynamoDB has no offset, so total and skip both come from
// the full filtered scan.
func (r *ProductRepository) QueryProducts(ctx context.Context, q domain.ProductQuery) ([]domain.Product, int64, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	}

	expr, ok, err := buildProductFilter(q)
	if err != nil {
		return nil, 0, err
	}
	if ok {
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	matched, err := r.scan(ctx, input)
	if err != nil {
		return nil, 0, err
	}

	domain.SortProducts(matched, q.Sort)
	return domain.Paginate(matched, q), int64(len(matched)), nil
}

func (r *ProductRepository) ListProducts(ctx context.Context, order domain.SortOrder) ([]domain.Product, error) {
	products, err := r.scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}

	domain.SortProducts(products, order)
	return products, nil
}

func (r *ProductRepository) scan(ctx context.Context, input *dynamodb.ScanInput) ([]domain.Product, error) {
	var products []domain.Product

	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan products: %w", err)
		}

		var items []productItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal products: %w", err)
		}
		for _, item := range items {
			products = append(products, item.Product)
		}
	}

	return products, nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	av, err := attributevalue.MarshalMap(newProductItem(product))
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("product_id"))).
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
			return repository.ErrProductExists
		}
		return fmt.Errorf("failed to put item: %w", err)
	}

	return nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	if result.Item == nil {
		return nil, repository.ErrProductNotFound
	}

	var item productItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	return &item.Product, nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("product_id"))).
		Build()
	if err != nil {
		return err
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		ConditionExpression:      cond.Condition(),
		ExpressionAttributeNames: cond.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return repository.ErrProductNotFound
		}
		return fmt.Errorf("failed to delete item: %w", err)
	}

	return nil
}
