package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldIsRead           = "is_read"
	fieldDeleted          = "deleted"
	fieldToken            = "token"
	fieldName             = "name"
	fieldLastSeenAt       = "last_seen_at"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
)
