package domain

import "time"

// Device is a push-notification registration for one of a user's clients.
// A user holds at most one active registration per platform; rows are
// deactivated, never deleted, so bounced tokens leave an audit trail.
type Device struct {
	DeviceID   string    `json:"id" dynamodbav:"device_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	Token      string    `json:"-" dynamodbav:"token"`
	Platform   string    `json:"platform" dynamodbav:"platform"` // "web" | "ios" | "android"
	Name       *string   `json:"name,omitempty" dynamodbav:"name"`
	Enable     bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at" dynamodbav:"last_seen_at"`
}

type RegisterDeviceRequest struct {
	Token    string  `json:"token" validate:"required,max=255"`
	Platform string  `json:"platform" validate:"required,oneof=web ios android"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
}
