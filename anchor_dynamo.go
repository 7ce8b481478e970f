package prooflog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// dynamoAPI is the slice of the DynamoDB client this store uses.
type dynamoAPI interface {
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoAnchorStore is the production anchor backend. Counters use the
// table's atomic ADD update, so concurrent callers across processes
// still observe a strictly increasing, gapless sequence; anchors use a
// conditional put that accepts only a first write or an idempotent
// retry of the same (counter, root) pair.
type DynamoAnchorStore struct {
	client dynamoAPI
	table  string
}

// OpenDynamoAnchorStore builds a store for the given table using the
// default AWS credential chain. An empty region defers to the
// environment.
func OpenDynamoAnchorStore(ctx context.Context, table, region string) (*DynamoAnchorStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &DynamoAnchorStore{client: dynamodb.NewFromConfig(cfg), table: table}, nil
}

// NextCounter atomically increments and returns the run's counter.
// "counter" is a DynamoDB reserved word, hence the #c alias.
func (s *DynamoAnchorStore) NextCounter(ctx context.Context, runID string) (int64, error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"run_id": &types.AttributeValueMemberS{Value: runID},
		},
		UpdateExpression:         aws.String("ADD #c :one SET updated_at = :t"),
		ExpressionAttributeNames: map[string]string{"#c": "counter"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":t":   &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Unix(), 10)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("anchor counter: %w", err)
	}
	attr, ok := out.Attributes["counter"]
	if !ok {
		return 0, fmt.Errorf("anchor counter: no counter attribute returned")
	}
	n, ok := attr.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("anchor counter: unexpected attribute type %T", attr)
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("anchor counter: %w", err)
	}
	return v, nil
}

// AnchorRoot writes the anchor item with a condition that tolerates
// only first writes and exact resubmissions. NextCounter's ADD update
// creates the item with a counter but no root, so a first anchor must
// also accept the counter-matching, not-yet-anchored item. A rejected
// condition maps to ErrAnchorConflict.
func (s *DynamoAnchorStore) AnchorRoot(ctx context.Context, runID string, counter int64, merkleRoot string, meta map[string]string) error {
	item := map[string]types.AttributeValue{
		"run_id":      &types.AttributeValueMemberS{Value: runID},
		"counter":     &types.AttributeValueMemberN{Value: strconv.FormatInt(counter, 10)},
		"merkle_root": &types.AttributeValueMemberS{Value: merkleRoot},
		"anchored_at": &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Unix(), 10)},
	}
	if len(meta) > 0 {
		m := make(map[string]types.AttributeValue, len(meta))
		for k, v := range meta {
			m[k] = &types.AttributeValueMemberS{Value: v}
		}
		item["meta"] = &types.AttributeValueMemberM{Value: m}
	}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(run_id) OR (#c = :c AND (attribute_not_exists(merkle_root) OR merkle_root = :r))"),
		ExpressionAttributeNames: map[string]string{"#c": "counter"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberN{Value: strconv.FormatInt(counter, 10)},
			":r": &types.AttributeValueMemberS{Value: merkleRoot},
		},
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return fmt.Errorf("anchor %s counter %d: %w", runID, counter, ErrAnchorConflict)
		}
		return fmt.Errorf("anchor %s: %w", runID, err)
	}
	return nil
}
