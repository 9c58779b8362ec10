package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-trip-api/internal/domain"
)

// ItineraryRepo provides typed DynamoDB operations for the itineraries table.
type ItineraryRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewItineraryRepo(client *dynamodb.Client, tableName string) *ItineraryRepo {
	return &ItineraryRepo{client: client, tableName: tableName}
}

func (r *ItineraryRepo) Put(ctx context.Context, it *domain.Itinerary) error {
	item, err := attributevalue.MarshalMap(it)
	if err != nil {
		return fmt.Errorf("marshal itinerary: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ItineraryRepo) Get(ctx context.Context, itineraryID string) (*domain.Itinerary, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("itinerary_id", itineraryID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("itinerary not found: %w", domain.ErrNotFound)
	}
	var it domain.Itinerary
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, err
	}
	return &it, nil
}
