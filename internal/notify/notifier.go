package notify

// Notifier delivers operator-facing messages. Implementations must never
// block the caller; delivery failures are logged and dropped.
type Notifier interface {
	// Info sends a routine status message.
	Info(msg string)
	// Critical sends a message that should page the operator.
	Critical(msg string)
	// Close flushes queued messages and stops background delivery.
	Close()
}
