package service

import "errors"

// Error taxonomy for node and ledger failures. Callers match with errors.Is.
var (
	// ErrUpstream means a call to the lightning node failed. The operation is
	// aborted and not retried, except for the stream-level reconnect.
	ErrUpstream = errors.New("upstream node call failed")

	// ErrPersistence means a ledger or cursor write failed. The reconciliation
	// loop never advances the cursor past an event that hit this, so the
	// event is redelivered instead of lost.
	ErrPersistence = errors.New("persistence failed")

	// ErrUnknownInvoice means a settlement arrived for a payment request with
	// no ledger record. Reported as a diagnostic, never fatal.
	ErrUnknownInvoice = errors.New("settlement for unknown invoice")

	// ErrStream is a transport-level subscription error. It triggers a
	// resubscribe with backoff and never terminates the engine.
	ErrStream = errors.New("settlement stream error")
)
