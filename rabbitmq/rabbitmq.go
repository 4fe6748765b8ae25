package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/gommon/log"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/pleb-devs/pleb-wallet-backend/common"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ziflex/lecho/v3"
)

const (
	defaultHeartbeat = 10 * time.Second
	defaultLocale    = "en_US"
)

type IncomingInvoiceHandler = func(ctx context.Context, invoice *lnrpc.Invoice) error

// Client consumes settlement events published to rabbitmq instead of the
// node's gRPC stream. Resumption is handled by queue acks, not the cursor.
type Client interface {
	SubscribeToLndInvoices(context.Context, IncomingInvoiceHandler) error
	// Close will close all connections to rabbitmq
	Close() error
}

type DefaultClient struct {
	conn           *amqp.Connection
	consumeChannel *amqp.Channel

	logger *lecho.Logger

	lndInvoiceExchange          string
	lndInvoiceConsumerQueueName string
}

type ClientOption = func(client *DefaultClient)

func WithLndInvoiceExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.lndInvoiceExchange = exchange
	}
}

func WithLndInvoiceConsumerQueueName(name string) ClientOption {
	return func(client *DefaultClient) {
		client.lndInvoiceConsumerQueueName = name
	}
}

func WithLogger(logger *lecho.Logger) ClientOption {
	return func(client *DefaultClient) {
		client.logger = logger
	}
}

// Dial sets up a connection to rabbitmq with a channel that is ready to
// consume. The initial connect is retried with a capped backoff.
func Dial(uri string, options ...ClientOption) (Client, error) {
	client := &DefaultClient{
		logger: lecho.New(
			os.Stdout,
			lecho.WithLevel(log.DEBUG),
			lecho.WithTimestamp(),
		),
		lndInvoiceExchange:          "lnd_invoice",
		lndInvoiceConsumerQueueName: "lnd_invoice_consumer",
	}
	for _, opt := range options {
		opt(client)
	}

	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.MaxInterval = time.Second * 10
	exponentialBackoff.MaxElapsedTime = time.Minute

	err := backoff.Retry(func() error {
		conn, err := amqp.DialConfig(uri, amqp.Config{
			Heartbeat: defaultHeartbeat,
			Locale:    defaultLocale,
			Dial:      amqp.DefaultDial(time.Second * 3),
		})
		if err != nil {
			client.logger.Errorf("amqp: connect failed, retrying: %v", err)
			return err
		}
		client.conn = conn
		return nil
	}, exponentialBackoff)
	if err != nil {
		return nil, err
	}

	client.consumeChannel, err = client.conn.Channel()
	if err != nil {
		return nil, err
	}

	return client, nil
}

func (client *DefaultClient) Close() error { return client.conn.Close() }

func (client *DefaultClient) SubscribeToLndInvoices(ctx context.Context, handler IncomingInvoiceHandler) error {
	err := client.consumeChannel.ExchangeDeclare(
		client.lndInvoiceExchange,
		// topic exchanges route messages to queues based on a routing key
		"topic",
		// Durable and Non-Auto-Deleted exchanges survive server restarts and
		// remain declared when there are no remaining bindings.
		true,
		false,
		// Non-Internal exchanges accept direct publishing
		false,
		// Nowait: false because we want a server response confirming the
		// exchange was created successfully
		false,
		nil,
	)
	if err != nil {
		return err
	}

	queue, err := client.consumeChannel.QueueDeclare(
		client.lndInvoiceConsumerQueueName,
		true,
		false,
		// Non-Exclusive means other consumers can consume from this queue,
		// so multiple instances spread the load of invoices between them
		false,
		false,
		// A safety mechanism: we don't requeue failed messages, but cap
		// redeliveries anyway to avoid infinite loops.
		amqp.Table{
			"delivery-limit": 10,
		},
	)
	if err != nil {
		return err
	}

	err = client.consumeChannel.QueueBind(
		queue.Name,
		common.RabbitMQSettledInvoiceRoutingKey,
		client.lndInvoiceExchange,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	deliveryChan, err := client.consumeChannel.Consume(
		queue.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	client.logger.Info("Starting RabbitMQ consumer loop")
	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case delivery, ok := <-deliveryChan:
			if !ok {
				return fmt.Errorf("Disconnected from RabbitMQ")
			}
			var invoice lnrpc.Invoice

			err := json.Unmarshal(delivery.Body, &invoice)
			if err != nil {
				captureErr(client.logger, err)

				// If we can't even unmarshal the message we are dealing with
				// a badly formatted event. Nack the message and explicitly
				// do not requeue it.
				if err = delivery.Nack(false, false); err != nil {
					captureErr(client.logger, err)
				}

				continue
			}

			err = handler(ctx, &invoice)
			if err != nil {
				captureErr(client.logger, err)

				// If for some reason we can't handle the message we also don't
				// requeue because this can lead to an endless loop that puts
				// pressure on the database and logs.
				if err := delivery.Nack(false, false); err != nil {
					captureErr(client.logger, err)
				}

				continue
			}

			if err = delivery.Ack(false); err != nil {
				captureErr(client.logger, err)
			}
		}
	}
}

func captureErr(logger *lecho.Logger, err error) {
	logger.Error(err)
	sentry.CaptureException(err)
}
