package dynamodb

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// SetClock replaces the clock used to stamp and expire locks.
func (b *Backend) SetClock(now func() time.Time) {
	if now != nil {
		b.now = now
	}
}

// AcquireLock takes the lock item for key unless an unexpired one exists.
// An expired item is overwritten in the same conditional put, so a holder
// that died mid-operation blocks others for at most ttl.
func (b *Backend) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := b.now()
	_, err := b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &b.tableName,
		Item: map[string]ddbtypes.AttributeValue{
			"PK":         &ddbtypes.AttributeValueMemberS{Value: lockPK(key)},
			"SK":         &ddbtypes.AttributeValueMemberS{Value: lockSK()},
			"ttl":        epoch(ttlEpoch(now, ttl)),
			"acquiredAt": epoch(now.Unix()),
		},
		ConditionExpression:      aws.String("attribute_not_exists(PK) OR #ttl < :now"),
		ExpressionAttributeNames: map[string]string{"#ttl": "ttl"},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":now": epoch(now.Unix()),
		},
	})
	switch {
	case err == nil:
		return true, nil
	case isConditionalCheckFailed(err):
		return false, nil
	default:
		return false, err
	}
}

// ReleaseLock deletes the lock item. Releasing a lock that is not held is a no-op.
func (b *Backend) ReleaseLock(ctx context.Context, key string) error {
	_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &b.tableName,
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: lockPK(key)},
			"SK": &ddbtypes.AttributeValueMemberS{Value: lockSK()},
		},
	})
	return err
}

func epoch(sec int64) *ddbtypes.AttributeValueMemberN {
	return &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(sec, 10)}
}
