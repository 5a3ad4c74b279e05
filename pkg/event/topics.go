package event

// AllTopics lists every subject on the shared event stream. All services
// declare the same list so the stream definition stays stable.
var AllTopics = []string{
	OrderCreatedTopic,
	OrderStatusUpdatedTopic,
	OrderPreparingTopic,
	OrderReadyTopic,
	PaymentCompletedTopic,
	PaymentFailedTopic,
}
