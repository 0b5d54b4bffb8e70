package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/fystack/appprefs/pkg/common/config"
	"github.com/fystack/appprefs/pkg/common/enum"
)

const dynamoTimeout = 5 * time.Second

// dynamoAPI is the part of *dynamodb.Client the store uses.
type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore keeps one item per setting, keyed "SETTINGS#<account>#<key>" in the
// table's PK attribute.
type DynamoStore struct {
	client    dynamoAPI
	tableName string
	account   string
}

// NewDynamoStore loads the default AWS credential chain for cfg.Region.
func NewDynamoStore(ctx context.Context, cfg config.DynamoSettingsConfig, account string) (*DynamoStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return newDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.Table, account), nil
}

func newDynamoStore(client dynamoAPI, tableName, account string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, account: account}
}

func (s *DynamoStore) pk(key string) string {
	return "SETTINGS#" + s.account + "#" + key
}

func (s *DynamoStore) GetName() string {
	return string(enum.SettingsStoreTypeDynamo)
}

func (s *DynamoStore) Get(key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrKeyEmpty
	}
	ctx, cancel := context.WithTimeout(context.Background(), dynamoTimeout)
	defer cancel()

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: s.pk(key)},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("GetItem: %w", err)
	}
	if out.Item == nil {
		return "", false, nil
	}

	attr, ok := out.Item["value"].(*types.AttributeValueMemberS)
	if !ok {
		return "", false, fmt.Errorf("setting %s: value attribute is not a string", key)
	}
	return attr.Value, true, nil
}

func (s *DynamoStore) Set(key, value string) error {
	if key == "" {
		return ErrKeyEmpty
	}
	ctx, cancel := context.WithTimeout(context.Background(), dynamoTimeout)
	defer cancel()

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: s.pk(key)},
			"value":     &types.AttributeValueMemberS{Value: value},
			"updatedAt": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("PutItem: %w", err)
	}
	return nil
}

func (s *DynamoStore) Close() error {
	return nil
}
