package domain

import "time"

// Notification is the durable, per-recipient record of a fan-out event.
// Rows are immutable after creation except for the IsRead and Deleted flags.
type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	ItineraryID    string    `json:"itinerary_id,omitempty" dynamodbav:"itinerary_id"`
	Category       string    `json:"category" dynamodbav:"category"`
	Title          string    `json:"title" dynamodbav:"title"`
	Body           string    `json:"body" dynamodbav:"body"`
	IsRead         bool      `json:"is_read" dynamodbav:"is_read"`
	Deleted        bool      `json:"-" dynamodbav:"deleted"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}

const CategoryOwnerAnnouncement = "owner-announcement"

type CreateNotificationRequest struct {
	Title     string `json:"title" validate:"required,max=200"`
	Body      string `json:"body" validate:"required"`
	SendEmail bool   `json:"send_email"`
}

// NotificationSummary is what the caller of a fan-out sees: the number of
// members a row was persisted for. Delivery outcomes are deliberately absent.
type NotificationSummary struct {
	RecipientCount int `json:"recipient_count"`
}

type UnreadCount struct {
	UnreadCount int `json:"unread_count"`
}
