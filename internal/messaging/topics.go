package messaging

// Order lifecycle topics. The storefront produces, the notification worker
// consumes.
const (
	TopicOrderCreated   = "order.created"
	TopicOrderCancelled = "order.cancelled"
)
