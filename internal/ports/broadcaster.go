package ports

// Port: fan-out of change notifications to connected realtime clients.
type Broadcaster interface {
	// Send a typed event to every client except those tagged excludeUserID.
	Broadcast(eventType string, data any, excludeUserID string)
}
