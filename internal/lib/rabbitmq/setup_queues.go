package rabbitmq

// Ключи маршрутизации доменных событий.
const (
	RoutingSaleRecorded          = "sale.recorded"
	RoutingSubscriptionActivated = "subscription.activated"
)

// QueueConfig описывает очередь и ключ, по которому она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetEventQueues возвращает очереди доменных событий.
func GetEventQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "quickstock.sales", RoutingKey: RoutingSaleRecorded},
		{QueueName: "quickstock.subscriptions", RoutingKey: RoutingSubscriptionActivated},
	}
}
