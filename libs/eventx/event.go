package eventx

// Event is the domain event envelope services enqueue for publishing.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	EventID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte

	// W3C trace context captured when the event was enqueued.
	traceparent string
	tracestate  string
}
