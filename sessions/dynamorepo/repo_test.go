package dynamorepo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions"
	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/sessions/dynamorepo"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items per table and records update inputs. It does not evaluate
// update expressions; it only enforces the existence condition.
type fakeDynamo struct {
	items   map[string]map[string]map[string]types.AttributeValue
	updates []*dynamodb.UpdateItemInput
	err     error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]map[string]types.AttributeValue)}
}

func username(k map[string]types.AttributeValue) string {
	return k["username"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[aws.ToString(in.TableName)][username(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	table := aws.ToString(in.TableName)
	if f.items[table] == nil {
		f.items[table] = make(map[string]map[string]types.AttributeValue)
	}
	f.items[table][username(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if _, ok := f.items[aws.ToString(in.TableName)][username(in.Key)]; !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("conditional request failed")}
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(f.items[aws.ToString(in.TableName)], username(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := dynamorepo.New(newFakeDynamo())

	_, err := store.Get(ctx, "TokenMapping", "alice")
	require.ErrorIs(t, err, sessions.ErrNotFound)

	record := &sessions.Record{
		Username:         "alice",
		SessionID:        "s1",
		Token:            &sessions.UpstreamToken{AccessToken: "tok", RefreshToken: "ref", ExpiresAt: time.Unix(1_700_003_600, 0)},
		LastActivityTime: time.UnixMilli(1_700_000_000_000),
		SelectedRole:     &sessions.SelectedRole{RoleID: "555", OrgCode: "FA565"},
	}
	require.NoError(t, store.Put(ctx, "TokenMapping", record))

	got, err := store.Get(ctx, "TokenMapping", "alice")
	require.NoError(t, err)
	require.Equal(t, record, got)
}

func TestStore_UpdateExpression(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := dynamorepo.New(fake)
	require.NoError(t, store.Put(ctx, "TokenMapping", &sessions.Record{Username: "alice", SessionID: "s1"}))

	t.Run("activity only", func(t *testing.T) {
		err := store.Update(ctx, "TokenMapping", "alice", sessions.Update{LastActivityTime: time.UnixMilli(42)})
		require.NoError(t, err)

		in := fake.updates[len(fake.updates)-1]
		require.Equal(t, "SET lastActivityTime = :lastActivityTime", aws.ToString(in.UpdateExpression))
		require.Equal(t, "attribute_exists(username)", aws.ToString(in.ConditionExpression))
		require.Equal(t, &types.AttributeValueMemberN{Value: "42"}, in.ExpressionAttributeValues[":lastActivityTime"])
	})

	t.Run("token and credential removal", func(t *testing.T) {
		err := store.Update(ctx, "TokenMapping", "alice", sessions.Update{
			LastActivityTime: time.UnixMilli(42),
			Token:            &sessions.UpstreamToken{AccessToken: "tok", RefreshToken: "ref", ExpiresAt: time.Unix(100, 0)},
			ClearCredential:  true,
		})
		require.NoError(t, err)

		in := fake.updates[len(fake.updates)-1]
		require.Equal(t,
			"SET lastActivityTime = :lastActivityTime, upstreamAccessToken = :accessToken, upstreamRefreshToken = :refreshToken, upstreamExpiresAt = :expiresAt REMOVE identityIdToken, identityAuthorizationCode",
			aws.ToString(in.UpdateExpression))
		require.Equal(t, &types.AttributeValueMemberN{Value: "100"}, in.ExpressionAttributeValues[":expiresAt"])
		require.Equal(t, &types.AttributeValueMemberS{Value: "tok"}, in.ExpressionAttributeValues[":accessToken"])
	})

	t.Run("missing record", func(t *testing.T) {
		err := store.Update(ctx, "TokenMapping", "ghost", sessions.Update{LastActivityTime: time.Now()})
		require.ErrorIs(t, err, sessions.ErrNotFound)
	})
}

func TestStore_DeleteAndErrors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := dynamorepo.New(fake)
	require.NoError(t, store.Put(ctx, "SessionManagement", &sessions.Record{Username: "alice"}))
	require.NoError(t, store.Delete(ctx, "SessionManagement", "alice"))

	_, err := store.Get(ctx, "SessionManagement", "alice")
	require.ErrorIs(t, err, sessions.ErrNotFound)

	fake.err = errors.New("throttled")
	_, err = store.Get(ctx, "SessionManagement", "alice")
	require.ErrorContains(t, err, "throttled")
	require.NotErrorIs(t, err, sessions.ErrNotFound)
}
