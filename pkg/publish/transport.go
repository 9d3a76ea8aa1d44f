package publish

// Transport is the broker link the publisher sends through.
//
// Publish must be synchronous and bounded: it returns once the broker has
// accepted the message or a short internal timeout has failed it. Errors
// are recoverable by definition; the publisher degrades to the queue.
type Transport interface {
	// Publish sends one message.
	Publish(topic string, payload []byte, retained bool) error

	// Subscribe registers a handler for inbound messages on a topic.
	Subscribe(topic string, handler func(topic string, payload []byte)) error

	// Connected reports whether the broker link is currently up.
	Connected() bool

	// Close shuts the link down.
	Close()
}
