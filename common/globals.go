package common

const (
	// Consumer types for the settlement subscription.
	ConsumerTypeGRPC     = "grpc"
	ConsumerTypeRabbitMQ = "rabbitmq"

	// Routing key the invoice consumer queue binds to.
	RabbitMQSettledInvoiceRoutingKey = "invoice.incoming.settled"
)
