package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// SettingsSource reads the user settings item from the instance table.
// Fields missing from the item keep the fallback values.
type SettingsSource struct {
	backend  *Backend
	fallback types.Settings
}

// Settings returns a settings source sharing the backend's table.
func (b *Backend) Settings(fallback types.Settings) *SettingsSource {
	return &SettingsSource{backend: b, fallback: fallback}
}

// Current returns the stored settings, or the fallback when none are stored.
func (s *SettingsSource) Current(ctx context.Context) (types.Settings, error) {
	b := s.backend
	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &b.tableName,
		ConsistentRead: aws.Bool(true),
		Key:            settingsKey(),
	})
	if err != nil {
		return s.fallback, fmt.Errorf("reading settings: %w", err)
	}
	if out.Item == nil {
		return s.fallback, nil
	}

	settings := s.fallback
	if err := attributevalue.UnmarshalMapWithOptions(out.Item, &settings, decodeJSONTags); err != nil {
		return s.fallback, fmt.Errorf("unmarshaling settings: %w", err)
	}
	if !settings.Timeout.Valid() {
		b.logger.Warn("stored timeout policy invalid, using fallback", "timeout", int(settings.Timeout))
		settings.Timeout = s.fallback.Timeout
	}
	return settings, nil
}

// Put stores settings as the current settings item.
func (s *SettingsSource) Put(ctx context.Context, settings types.Settings) error {
	b := s.backend
	item, err := attributevalue.MarshalMapWithOptions(settings, useJSONTags)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	for k, v := range settingsKey() {
		item[k] = v
	}
	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &b.tableName,
		Item:      item,
	})
	return err
}

func settingsKey() map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"PK": &ddbtypes.AttributeValueMemberS{Value: pkSettings},
		"SK": &ddbtypes.AttributeValueMemberS{Value: skSettings},
	}
}
