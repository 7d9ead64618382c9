// Package dynamorepo stores session records in DynamoDB. Each logical table is a
// DynamoDB table keyed by "username".
package dynamorepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the subset of the DynamoDB client used by Store.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ sessions.Repo = (*Store)(nil)

type Store struct {
	client API
}

func New(client API) *Store {
	return &Store{client: client}
}

func key(username string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"username": &types.AttributeValueMemberS{Value: username},
	}
}

func (s *Store) Get(ctx context.Context, table, username string) (*sessions.Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key(username),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get %s: %w", table, err)
	}
	if len(out.Item) == 0 {
		return nil, sessions.ErrNotFound
	}
	var stored sessions.StoredRecord
	if err := attributevalue.UnmarshalMap(out.Item, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode session record: %w", err)
	}
	return stored.Record(), nil
}

func (s *Store) Put(ctx context.Context, table string, record *sessions.Record) error {
	item, err := attributevalue.MarshalMap(record.ToStored())
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("dynamodb put %s: %w", table, err)
	}
	return nil
}

// Update only touches the named attributes and is conditional on the record still
// existing, so an evicted session is never recreated by a late write.
func (s *Store) Update(ctx context.Context, table, username string, update sessions.Update) error {
	expr, values := updateExpression(update)
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key(username),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(username)"),
		ExpressionAttributeValues: values,
	})
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return sessions.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("dynamodb update %s: %w", table, err)
	}
	return nil
}

func updateExpression(update sessions.Update) (string, map[string]types.AttributeValue) {
	var activity int64
	if !update.LastActivityTime.IsZero() {
		activity = update.LastActivityTime.UnixMilli()
	}
	set := []string{"lastActivityTime = :lastActivityTime"}
	values := map[string]types.AttributeValue{
		":lastActivityTime": number(activity),
	}
	if update.Token != nil {
		set = append(set,
			"upstreamAccessToken = :accessToken",
			"upstreamRefreshToken = :refreshToken",
			"upstreamExpiresAt = :expiresAt",
		)
		values[":accessToken"] = &types.AttributeValueMemberS{Value: update.Token.AccessToken}
		values[":refreshToken"] = &types.AttributeValueMemberS{Value: update.Token.RefreshToken}
		values[":expiresAt"] = number(update.Token.ExpiresAt.Unix())
	}
	expr := "SET " + strings.Join(set, ", ")
	if update.ClearCredential {
		expr += " REMOVE identityIdToken, identityAuthorizationCode"
	}
	return expr, values
}

func number(n int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

func (s *Store) Delete(ctx context.Context, table, username string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       key(username),
	}); err != nil {
		return fmt.Errorf("dynamodb delete %s: %w", table, err)
	}
	return nil
}
