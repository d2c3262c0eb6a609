package realtime

import (
	"encoding/json"
	"time"
)

// Event types pushed by the server after a REST mutation.
const (
	TypeConnection             = "connection"
	TypeUserCreated            = "user_created"
	TypeUserUpdated            = "user_updated"
	TypeApprovalRequestCreated = "approval_request_created"
	TypeApprovalRequestUpdated = "approval_request_updated"
	TypeKurirActivityCreated   = "kurir_activity_created"
	TypePackageCreated         = "package_created"
	TypePackageUpdated         = "package_updated"
	TypeAttendanceCreated      = "attendance_created"
	TypeAuth                   = "auth"
)

// Message is the JSON envelope exchanged on /ws-api.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// AuthData tags a connection with the signed-in user.
type AuthData struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

var buckets = map[string][]string{
	TypeUserCreated:            {"/api/users"},
	TypeUserUpdated:            {"/api/users"},
	TypeApprovalRequestCreated: {"/api/approval-requests", "/api/approval-requests/pending"},
	TypeApprovalRequestUpdated: {"/api/approval-requests", "/api/approval-requests/pending"},
	TypeKurirActivityCreated:   {"/api/kurir-activities"},
	TypePackageCreated:         {"/api/packages"},
	TypePackageUpdated:         {"/api/packages"},
	TypeAttendanceCreated:      {"/api/attendance"},
}

// BucketsFor returns the cached-data buckets invalidated by an event type.
// Unknown types map to nothing.
func BucketsFor(eventType string) []string {
	return buckets[eventType]
}

func newMessage(eventType string, data any, now time.Time) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Message{Type: eventType, Data: raw, Timestamp: now.UTC()})
}
