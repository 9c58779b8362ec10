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

// MemberRepo provides typed DynamoDB operations for the itinerary_members table.
type MemberRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMemberRepo(client *dynamodb.Client, tableName string) *MemberRepo {
	return &MemberRepo{client: client, tableName: tableName}
}

func (r *MemberRepo) Put(ctx context.Context, m *domain.ItineraryMember) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal member: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListActive returns the non-removed members of an itinerary.
func (r *MemberRepo) ListActive(ctx context.Context, itineraryID string) ([]domain.ItineraryMember, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("itinerary_id-index"),
		KeyConditionExpression: aws.String("itinerary_id = :iid"),
		FilterExpression:       aws.String("deleted = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":iid": &types.AttributeValueMemberS{Value: itineraryID},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return nil, err
	}
	var members []domain.ItineraryMember
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// GetActive returns the non-removed membership row for a user on an itinerary.
func (r *MemberRepo) GetActive(ctx context.Context, itineraryID, userID string) (*domain.ItineraryMember, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("itinerary_id-index"),
		KeyConditionExpression: aws.String("itinerary_id = :iid"),
		FilterExpression:       aws.String("user_id = :uid AND deleted = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":iid": &types.AttributeValueMemberS{Value: itineraryID},
			":uid": &types.AttributeValueMemberS{Value: userID},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("membership not found: %w", domain.ErrNotFound)
	}
	var m domain.ItineraryMember
	if err := attributevalue.UnmarshalMap(out.Items[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepo) SoftDelete(ctx context.Context, memberID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldDeleted: true})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("member_id", memberID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
