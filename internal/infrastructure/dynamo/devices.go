package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-trip-api/internal/domain"
)

// DeviceRepo provides typed DynamoDB operations for the devices table.
type DeviceRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewDeviceRepo(client *dynamodb.Client, tableName string) *DeviceRepo {
	return &DeviceRepo{client: client, tableName: tableName}
}

func (r *DeviceRepo) Put(ctx context.Context, d *domain.Device) error {
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("marshal device: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetByToken looks a registration up via the token GSI. Token values are
// unique across the whole table, so at most one row matches.
func (r *DeviceRepo) GetByToken(ctx context.Context, token string) (*domain.Device, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("token-index"),
		KeyConditionExpression: aws.String("#tk = :t"),
		ExpressionAttributeNames: map[string]string{
			"#tk": fieldToken,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: token},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("device not found: %w", domain.ErrNotFound)
	}
	var d domain.Device
	if err := attributevalue.UnmarshalMap(out.Items[0], &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByUserAndPlatform returns the user's registration for one platform,
// active or not. There is at most one because Register upserts by this pair.
func (r *DeviceRepo) GetByUserAndPlatform(ctx context.Context, userID, platform string) (*domain.Device, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("platform = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
			":p":   &types.AttributeValueMemberS{Value: platform},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("device not found: %w", domain.ErrNotFound)
	}
	var d domain.Device
	if err := attributevalue.UnmarshalMap(out.Items[0], &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListActiveByUsers collects the active registrations of every given user.
func (r *DeviceRepo) ListActiveByUsers(ctx context.Context, userIDs []string) ([]domain.Device, error) {
	var devices []domain.Device
	for _, uid := range userIDs {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String("user_id-index"),
			KeyConditionExpression: aws.String("user_id = :uid"),
			FilterExpression:       aws.String("#en = :t"),
			ExpressionAttributeNames: map[string]string{
				"#en": fieldEnable,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: uid},
				":t":   &types.AttributeValueMemberBOOL{Value: true},
			},
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Device
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		devices = append(devices, page...)
	}
	return devices, nil
}

// ListStaleActive scans for active registrations unused since the cutoff.
// Intended for the periodic sweep only, never for the request path.
func (r *DeviceRepo) ListStaleActive(ctx context.Context, cutoff time.Time) ([]domain.Device, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("#en = :t AND #ls < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#en": fieldEnable,
			"#ls": fieldLastSeenAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":      &types.AttributeValueMemberBOOL{Value: true},
			":cutoff": &types.AttributeValueMemberS{Value: cutoff.UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return nil, err
	}
	var devices []domain.Device
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *DeviceRepo) Update(ctx context.Context, deviceID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("device_id", deviceID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *DeviceRepo) Deactivate(ctx context.Context, deviceID string) error {
	return r.Update(ctx, deviceID, map[string]interface{}{fieldEnable: false})
}
