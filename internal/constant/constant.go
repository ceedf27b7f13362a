package constant

// Fiber context locals keys set by the auth middleware.
const (
	LocalsUserId  = "user_id"
	LocalsGroupId = "group_id"
)

// Notification types pushed over the websocket hub.
const (
	NotificationIngestProgress  = "ingestion_progress"
	NotificationIngestCompleted = "ingestion_completed"
	NotificationIngestFailed    = "ingestion_failed"
)
