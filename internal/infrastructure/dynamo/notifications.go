package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-trip-api/internal/domain"
)

// maxTransactItems is DynamoDB's hard ceiling on actions per TransactWriteItems
// call. A fan-out above this size cannot be written atomically.
const maxTransactItems = 100

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

// CreateMany writes all notifications in one transaction. Either every row
// commits or none does — a half-written fan-out is never visible.
func (r *NotificationRepo) CreateMany(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if len(notifications) > maxTransactItems {
		return fmt.Errorf("fan-out of %d rows exceeds transaction limit of %d: %w",
			len(notifications), maxTransactItems, domain.ErrBadRequest)
	}

	items := make([]types.TransactWriteItem, 0, len(notifications))
	for i := range notifications {
		item, err := attributevalue.MarshalMap(&notifications[i])
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(r.tableName),
				Item:      item,
			},
		})
	}

	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser queries the user_id-created_at GSI newest-first, hiding deleted
// rows. With unreadOnly it additionally filters out read rows.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	filter := "deleted = :f"
	values := map[string]types.AttributeValue{
		":uid": &types.AttributeValueMemberS{Value: userID},
		":f":   &types.AttributeValueMemberBOOL{Value: false},
	}
	if unreadOnly {
		filter += " AND is_read = :f"
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("user_id-created_at-index"),
		KeyConditionExpression:    aws.String("user_id = :uid"),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(false), // createdAt descending
	})
	if err != nil {
		return nil, err
	}
	var notifications []domain.Notification
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-created_at-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("is_read = :f AND deleted = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, err
	}
	return int(out.Count), nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string) error {
	return r.update(ctx, notificationID, map[string]interface{}{fieldIsRead: true})
}

func (r *NotificationRepo) SoftDelete(ctx context.Context, notificationID string) error {
	return r.update(ctx, notificationID, map[string]interface{}{fieldDeleted: true})
}

func (r *NotificationRepo) update(ctx context.Context, notificationID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("notification_id", notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
