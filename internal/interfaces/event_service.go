package interfaces

// Pipeline event types published on the internal bus and mirrored to
// websocket subscribers.
const (
	EventStoryCreated   = "story_created"
	EventStoryMerged    = "story_merged"
	EventBatchProcessed = "batch_processed"
	EventQueryServed    = "query_served"
)

// Event is a message published on the event bus
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// EventHandler is a callback function for handling events
type EventHandler func(event Event)

// EventService provides event publishing and subscription
type EventService interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType string, handler EventHandler)

	// Publish sends an event to all subscribers asynchronously
	Publish(event Event)

	// PublishSync sends an event and waits for all handlers to complete
	PublishSync(event Event)

	// Close drops all subscriptions
	Close()
}
