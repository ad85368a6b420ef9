package call

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/aira-ai/control-tower/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoRepository persists call records to DynamoDB, one item per call id
// with the turn list embedded. Filtering happens client-side after the scan;
// the call volume this serves does not justify secondary indexes yet.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Repository = (*DynamoRepository)(nil)

// NewDynamoRepository builds a repository backed by the provided client.
func NewDynamoRepository(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoRepository {
	if client == nil {
		panic("call: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("call: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoRepository{client: client, tableName: tableName, logger: logger.Component("call_dynamo")}
}

// Save writes the whole call document.
func (r *DynamoRepository) Save(ctx context.Context, c *Call) error {
	if c == nil || c.ID == "" {
		return errors.New("call: cannot save call without id")
	}

	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("call: marshal call %s: %w", c.ID, err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("call: persist call %s: %w", c.ID, err)
	}
	return nil
}

// Get fetches one call by id.
func (r *DynamoRepository) Get(ctx context.Context, id string) (*Call, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"callId": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("call: fetch call %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var c Call
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, fmt.Errorf("call: decode call %s: %w", id, err)
	}
	return &c, nil
}

// List scans the table, filters client-side, and orders newest first.
func (r *DynamoRepository) List(ctx context.Context, f Filter) ([]*Call, error) {
	var out []*Call
	var startKey map[string]types.AttributeValue

	for {
		page, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("call: scan calls: %w", err)
		}

		for _, item := range page.Items {
			var c Call
			if err := attributevalue.UnmarshalMap(item, &c); err != nil {
				r.logger.Warn("skipping undecodable call item", "error", err)
				continue
			}
			if f.Matches(&c) {
				out = append(out, &c)
			}
		}

		if page.LastEvaluatedKey == nil {
			break
		}
		startKey = page.LastEvaluatedKey
	}

	if out == nil {
		out = []*Call{}
	}
	sortByStartDesc(out)
	return out, nil
}
