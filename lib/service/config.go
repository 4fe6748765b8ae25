package service

type Config struct {
	DatabaseUri                      string `envconfig:"DATABASE_URI" required:"true"`
	DatabaseMaxConns                 int    `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMaxIdleConns             int    `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DatabaseConnMaxLifetime          int    `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1800"` // 30 minutes
	CursorFilePath                   string `envconfig:"CURSOR_FILE_PATH" default:"data/cursor.db"`
	SentryDSN                        string `envconfig:"SENTRY_DSN"`
	LogFilePath                      string `envconfig:"LOG_FILE_PATH"`
	Host                             string `envconfig:"HOST" default:"localhost:3000"`
	Port                             int    `envconfig:"PORT" default:"3000"`
	DefaultRateLimit                 int    `envconfig:"DEFAULT_RATE_LIMIT" default:"10"`
	StrictRateLimit                  int    `envconfig:"STRICT_RATE_LIMIT" default:"10"`
	BurstRateLimit                   int    `envconfig:"BURST_RATE_LIMIT" default:"1"`
	EnablePrometheus                 bool   `envconfig:"ENABLE_PROMETHEUS" default:"false"`
	PrometheusPort                   int    `envconfig:"PROMETHEUS_PORT" default:"9092"`
	SubscriptionConsumerType         string `envconfig:"SUBSCRIPTION_CONSUMER_TYPE" default:"grpc"` //grpc, rabbitmq
	RabbitMQUri                      string `envconfig:"RABBITMQ_URI"`
	RabbitMQLndInvoiceExchange       string `envconfig:"RABBITMQ_LND_INVOICE_EXCHANGE" default:"lnd_invoice"`
	RabbitMQInvoiceConsumerQueueName string `envconfig:"RABBITMQ_INVOICE_CONSUMER_QUEUE_NAME" default:"lnd_invoice_consumer"`
}
