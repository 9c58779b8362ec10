package domain

import "time"

type Itinerary struct {
	ItineraryID string    `json:"id" dynamodbav:"itinerary_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	OwnerUserID string    `json:"owner_user_id" dynamodbav:"owner_user_id"`
	StartDate   string    `json:"start_date" dynamodbav:"start_date"` // YYYY-MM-DD
	EndDate     string    `json:"end_date" dynamodbav:"end_date"`
	GroupSize   int       `json:"group_size" dynamodbav:"group_size"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

// ItineraryMember links a user to an itinerary. Removal is a soft delete so
// past trips keep their full member history.
type ItineraryMember struct {
	MemberID    string    `json:"id" dynamodbav:"member_id"`
	ItineraryID string    `json:"itinerary_id" dynamodbav:"itinerary_id"`
	UserID      string    `json:"user_id" dynamodbav:"user_id"`
	Role        string    `json:"role" dynamodbav:"role"` // "owner" | "member"
	JoinedAt    time.Time `json:"joined_at" dynamodbav:"joined_at"`
	Deleted     bool      `json:"-" dynamodbav:"deleted"`
}

const (
	MemberRoleOwner  = "owner"
	MemberRoleMember = "member"
)

type CreateItineraryRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	GroupSize int    `json:"group_size" validate:"omitempty,min=1"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}
