package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/pleb-devs/pleb-wallet-backend/db/models"
)

// ErrNotFound is returned when no invoice exists for a payment request.
var ErrNotFound = errors.New("invoice not found")

// Store is the durable home of invoice records, keyed by payment request.
type Store interface {
	FindByPaymentRequest(ctx context.Context, paymentRequest string) (*models.Invoice, error)
	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	// Settle marks the invoice settled with the given settle date. The update
	// is conditioned on the invoice not being settled yet, so a duplicate
	// delivery racing with another consumer can never apply twice. It reports
	// whether this call applied the transition.
	Settle(ctx context.Context, paymentRequest string, settledAt time.Time) (applied bool, err error)
	ListByUser(ctx context.Context, userID int64) ([]models.Invoice, error)
}
