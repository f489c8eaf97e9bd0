package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

func useJSONTags(o *attributevalue.EncoderOptions)    { o.TagKey = "json" }
func decodeJSONTags(o *attributevalue.DecoderOptions) { o.TagKey = "json" }

// instanceItem marshals inst and adds the key attributes for one copy.
func instanceItem(inst types.Instance, pk, sk string) (map[string]ddbtypes.AttributeValue, error) {
	item, err := attributevalue.MarshalMapWithOptions(inst, useJSONTags)
	if err != nil {
		return nil, fmt.Errorf("marshaling instance %d: %w", inst.ID, err)
	}
	item["PK"] = &ddbtypes.AttributeValueMemberS{Value: pk}
	item["SK"] = &ddbtypes.AttributeValueMemberS{Value: sk}
	return item, nil
}

// truthItem is the authoritative copy; it carries the state index keys.
func truthItem(inst types.Instance) (map[string]ddbtypes.AttributeValue, error) {
	item, err := instanceItem(inst, instancePK(inst.ID), truthSK())
	if err != nil {
		return nil, err
	}
	item["GSI1PK"] = &ddbtypes.AttributeValueMemberS{Value: statePK(inst.State)}
	item["GSI1SK"] = &ddbtypes.AttributeValueMemberS{Value: instanceListSK(inst.ID)}
	return item, nil
}

func decodeInstance(item map[string]ddbtypes.AttributeValue) (*types.Instance, error) {
	var inst types.Instance
	if err := attributevalue.UnmarshalMapWithOptions(item, &inst, decodeJSONTags); err != nil {
		return nil, fmt.Errorf("unmarshaling instance: %w", err)
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &inst, nil
}

// nextID allocates an id from the atomic sequence counter.
func (b *Backend) nextID(ctx context.Context) (int64, error) {
	out, err := b.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &b.tableName,
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: pkSequence},
			"SK": &ddbtypes.AttributeValueMemberS{Value: skSequence},
		},
		UpdateExpression: aws.String("ADD #v :one"),
		ExpressionAttributeNames: map[string]string{
			"#v": "value",
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":one": &ddbtypes.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: ddbtypes.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("allocating instance id: %w", err)
	}
	av, ok := out.Attributes["value"].(*ddbtypes.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("allocating instance id: missing counter value")
	}
	return strconv.ParseInt(av.Value, 10, 64)
}

// Create stores the truth item and, for instances with an alarm, the
// per-alarm list copy in one transaction.
func (b *Backend) Create(ctx context.Context, inst types.Instance) (int64, error) {
	id, err := b.nextID(ctx)
	if err != nil {
		return 0, err
	}
	inst.ID = id

	truth, err := truthItem(inst)
	if err != nil {
		return 0, err
	}
	items := []ddbtypes.TransactWriteItem{{
		Put: &ddbtypes.Put{
			TableName:           &b.tableName,
			Item:                truth,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		},
	}}
	if inst.AlarmID != nil {
		list, err := instanceItem(inst, alarmPK(*inst.AlarmID), instanceListSK(id))
		if err != nil {
			return 0, err
		}
		items = append(items, ddbtypes.TransactWriteItem{
			Put: &ddbtypes.Put{TableName: &b.tableName, Item: list},
		})
	}

	if _, err := b.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return 0, err
	}
	return id, nil
}

// Get reads the truth item (strongly consistent).
func (b *Backend) Get(ctx context.Context, id int64) (*types.Instance, error) {
	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &b.tableName,
		ConsistentRead: aws.Bool(true),
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: instancePK(id)},
			"SK": &ddbtypes.AttributeValueMemberS{Value: truthSK()},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("instance %d: %w", id, store.ErrNotFound)
	}
	return decodeInstance(out.Item)
}

// Replace overwrites both copies. The truth put is conditional on the row
// existing so a concurrent delete cannot be resurrected.
func (b *Backend) Replace(ctx context.Context, inst types.Instance) error {
	prev, err := b.Get(ctx, inst.ID)
	if err != nil {
		return err
	}

	truth, err := truthItem(inst)
	if err != nil {
		return err
	}
	items := []ddbtypes.TransactWriteItem{{
		Put: &ddbtypes.Put{
			TableName:           &b.tableName,
			Item:                truth,
			ConditionExpression: aws.String("attribute_exists(PK)"),
		},
	}}
	if inst.AlarmID != nil {
		list, err := instanceItem(inst, alarmPK(*inst.AlarmID), instanceListSK(inst.ID))
		if err != nil {
			return err
		}
		items = append(items, ddbtypes.TransactWriteItem{
			Put: &ddbtypes.Put{TableName: &b.tableName, Item: list},
		})
	}
	if prev.AlarmID != nil && !inst.SameAlarm(prev.AlarmID) {
		items = append(items, b.deleteListCopy(*prev.AlarmID, inst.ID))
	}

	_, err = b.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if isTransactionConditionFailed(err) {
			return fmt.Errorf("instance %d: %w", inst.ID, store.ErrNotFound)
		}
		return err
	}
	return nil
}

// Remove deletes both copies. A missing row is not an error.
func (b *Backend) Remove(ctx context.Context, id int64) error {
	prev, err := b.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}

	items := []ddbtypes.TransactWriteItem{{
		Delete: &ddbtypes.Delete{
			TableName: &b.tableName,
			Key: map[string]ddbtypes.AttributeValue{
				"PK": &ddbtypes.AttributeValueMemberS{Value: instancePK(id)},
				"SK": &ddbtypes.AttributeValueMemberS{Value: truthSK()},
			},
		},
	}}
	if prev.AlarmID != nil {
		items = append(items, b.deleteListCopy(*prev.AlarmID, id))
	}
	_, err = b.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	return err
}

func (b *Backend) deleteListCopy(alarmID, id int64) ddbtypes.TransactWriteItem {
	return ddbtypes.TransactWriteItem{
		Delete: &ddbtypes.Delete{
			TableName: &b.tableName,
			Key: map[string]ddbtypes.AttributeValue{
				"PK": &ddbtypes.AttributeValueMemberS{Value: alarmPK(alarmID)},
				"SK": &ddbtypes.AttributeValueMemberS{Value: instanceListSK(id)},
			},
		},
	}
}

// ListByAlarm queries the per-alarm list copies, in id order.
func (b *Backend) ListByAlarm(ctx context.Context, alarmID int64) ([]types.Instance, error) {
	return b.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              &b.tableName,
		ConsistentRead:         aws.Bool(true),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":     &ddbtypes.AttributeValueMemberS{Value: alarmPK(alarmID)},
			":prefix": &ddbtypes.AttributeValueMemberS{Value: prefixInstance},
		},
	})
}

// ListByState queries GSI1. The index is eventually consistent; callers
// that act on a row re-read it first.
func (b *Backend) ListByState(ctx context.Context, state types.State) ([]types.Instance, error) {
	return b.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              &b.tableName,
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk": &ddbtypes.AttributeValueMemberS{Value: statePK(state)},
		},
	})
}

func (b *Backend) queryAll(ctx context.Context, input *dynamodb.QueryInput) ([]types.Instance, error) {
	var out []types.Instance
	for {
		page, err := b.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			inst, err := decodeInstance(item)
			if err != nil {
				b.logger.Warn("skipping corrupt instance item", "error", err)
				continue
			}
			out = append(out, *inst)
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
