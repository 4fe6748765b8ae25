package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Subscription is a handle on the background settlement consumer.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartSubscription launches the settlement consumer in the background and
// returns immediately.
func (svc *WalletService) StartSubscription(ctx context.Context) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		err := svc.StartInvoiceRoutine(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			sentry.CaptureException(err)
			svc.Logger.Errorf("Invoice routine exited: %v", err)
			return
		}
		svc.Logger.Info("Invoice routine done")
	}()
	return sub
}

// Stop requests shutdown and waits for the consumer to release the stream.
// An in-flight settlement transition is allowed to finish first. Exceeding
// the timeout is a fatal shutdown error.
func (sub *Subscription) Stop(timeout time.Duration) error {
	sub.cancel()
	select {
	case <-sub.done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("settlement subscription did not stop within %s", timeout)
	}
}
