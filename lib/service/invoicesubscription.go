package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/getsentry/sentry-go"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/pleb-devs/pleb-wallet-backend/common"
	"github.com/pleb-devs/pleb-wallet-backend/cursor"
	"github.com/pleb-devs/pleb-wallet-backend/ledger"
	"github.com/pleb-devs/pleb-wallet-backend/lnd"
)

// ConnectInvoiceSubscription opens a new settlement stream, resuming from the
// last persisted cursor so a restart does not replay the whole feed.
func (svc *WalletService) ConnectInvoiceSubscription(ctx context.Context) (lnd.SubscribeInvoicesWrapper, error) {
	cur, err := svc.CursorStore.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	svc.Logger.Infof("Starting invoice subscription from add_index:%d settle_index:%d", cur.AddIndex, cur.SettleIndex)
	stream, err := svc.LndClient.SubscribeInvoices(ctx, &lnrpc.InvoiceSubscription{
		AddIndex:    cur.AddIndex,
		SettleIndex: cur.SettleIndex,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStream, err)
	}
	return stream, nil
}

// InvoiceUpdateSubscription consumes the settlement stream one event at a
// time until ctx is canceled. Stream errors and transition failures never
// terminate the loop: the subscription is re-established from the persisted
// cursor after a capped backoff, so failed events are redelivered.
func (svc *WalletService) InvoiceUpdateSubscription(ctx context.Context) error {
	retry := backoff.NewExponentialBackOff()
	retry.MaxInterval = 30 * time.Second
	retry.MaxElapsedTime = 0 // retry for the lifetime of the process

	var stream lnd.SubscribeInvoicesWrapper
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if stream == nil {
			newStream, err := svc.ConnectInvoiceSubscription(ctx)
			if err != nil {
				svc.reportSubscriptionError(err)
				if err := svc.waitRetry(ctx, retry.NextBackOff()); err != nil {
					return err
				}
				continue
			}
			stream = newStream
		}

		rawInvoice, err := stream.Recv()
		if err != nil {
			if isContextError(err) || ctx.Err() != nil {
				return ctx.Err()
			}
			svc.reportSubscriptionError(fmt.Errorf("%w: %v", ErrStream, err))
			stream = nil
			if err := svc.waitRetry(ctx, retry.NextBackOff()); err != nil {
				return err
			}
			continue
		}

		if err := svc.ProcessInvoiceUpdate(ctx, rawInvoice); err != nil {
			// The cursor must not move past this event. Re-enter the stream
			// from the last persisted cursor so the event is delivered again.
			svc.reportSubscriptionError(err)
			stream = nil
			if err := svc.waitRetry(ctx, retry.NextBackOff()); err != nil {
				return err
			}
			continue
		}

		if err := svc.CursorStore.Save(cursor.Cursor{
			AddIndex:    rawInvoice.AddIndex,
			SettleIndex: rawInvoice.SettleIndex,
		}); err != nil {
			// Safe to continue: an unsaved cursor only means replay after a
			// restart, which the settlement transition tolerates.
			svc.reportSubscriptionError(fmt.Errorf("%w: cursor save: %v", ErrPersistence, err))
		}
		retry.Reset()
	}
}

// ProcessInvoiceUpdate applies a single settlement event to the ledger. The
// update is idempotent: re-delivered events and events for already settled
// invoices are discarded without error.
func (svc *WalletService) ProcessInvoiceUpdate(ctx context.Context, rawInvoice *lnrpc.Invoice) error {
	// Only settlement completion events mutate the ledger.
	if !rawInvoice.Settled {
		return nil
	}

	invoice, err := svc.Ledger.FindByPaymentRequest(ctx, rawInvoice.PaymentRequest)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			// Settlement for an invoice this ledger never issued. Report it
			// and discard; never fabricate a record.
			svc.Logger.Infof("Invoice not found in the database. Ignoring. payment_request:%s", rawInvoice.PaymentRequest)
			sentry.CaptureException(fmt.Errorf("%w: %s", ErrUnknownInvoice, rawInvoice.PaymentRequest))
			return nil
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if invoice.Settled {
		// Expected re-delivery under at-least-once semantics.
		svc.Logger.Debugf("Invoice already settled. Ignoring. payment_request:%s", rawInvoice.PaymentRequest)
		return nil
	}

	settledAt := time.Unix(rawInvoice.SettleDate, 0).UTC()
	applied, err := svc.Ledger.Settle(ctx, rawInvoice.PaymentRequest, settledAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !applied {
		// A concurrent consumer won the race; same outcome either way.
		svc.Logger.Debugf("Invoice settled concurrently. Ignoring. payment_request:%s", rawInvoice.PaymentRequest)
		return nil
	}

	svc.Logger.Infof("Invoice settled payment_request:%s value:%d settle_date:%s", rawInvoice.PaymentRequest, invoice.Value, settledAt.Format(time.RFC3339))
	invoice.Settled = true
	svc.InvoicePubSub.Publish(invoice.UserID, *invoice)
	return nil
}

// StartInvoiceRoutine runs the configured settlement consumer until ctx is
// canceled.
func (svc *WalletService) StartInvoiceRoutine(ctx context.Context) error {
	switch svc.Config.SubscriptionConsumerType {
	case common.ConsumerTypeRabbitMQ:
		return svc.RabbitMQClient.SubscribeToLndInvoices(ctx, svc.ProcessInvoiceUpdate)
	case common.ConsumerTypeGRPC:
		return svc.InvoiceUpdateSubscription(ctx)
	default:
		return fmt.Errorf("Unrecognized subscription consumer type %s", svc.Config.SubscriptionConsumerType)
	}
}

func (svc *WalletService) reportSubscriptionError(err error) {
	svc.Logger.Errorf("Error processing invoice update subscription: %v", err)
	sentry.CaptureException(err)
}

func (svc *WalletService) waitRetry(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
