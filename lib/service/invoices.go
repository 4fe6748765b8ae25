package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/pleb-devs/pleb-wallet-backend/db/models"
)

type SendPaymentResponse struct {
	PaymentHashHex string
	PreimageHex    string
	PaymentError   string
	PaymentRequest string
}

// AddIncomingInvoice issues an invoice at the node and then records it as a
// pending ledger entry. If the ledger write fails the invoice still exists at
// the node; that inconsistency is surfaced to the caller, not repaired here.
func (svc *WalletService) AddIncomingInvoice(ctx context.Context, userID int64, value int64, memo string) (*models.Invoice, error) {
	lnInvoice := lnrpc.Invoice{
		Value: value,
		Memo:  memo,
	}
	lnInvoiceResult, err := svc.LndClient.AddInvoice(ctx, &lnInvoice)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	invoice := &models.Invoice{
		PaymentRequest: lnInvoiceResult.PaymentRequest,
		Value:          value,
		Memo:           memo,
		Settled:        false,
		Send:           false,
		UserID:         userID,
	}
	if err := svc.Ledger.CreateInvoice(ctx, invoice); err != nil {
		svc.Logger.Errorf("Could not store invoice payment_request:%s user_id:%d %v", invoice.PaymentRequest, userID, err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	svc.Logger.Infof("Added invoice payment_request:%s value:%d user_id:%d", invoice.PaymentRequest, value, userID)
	return invoice, nil
}

// PayInvoice submits an outgoing payment for the given payment request. It
// does not touch the ledger; settlement of our own invoices is observed
// through the subscription like any other settlement.
func (svc *WalletService) PayInvoice(ctx context.Context, paymentRequest string) (*SendPaymentResponse, error) {
	sendPaymentRequest := lnrpc.SendRequest{
		PaymentRequest: paymentRequest,
	}
	result, err := svc.LndClient.SendPaymentSync(ctx, &sendPaymentRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if result.GetPaymentError() != "" || result.GetPaymentPreimage() == nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, result.GetPaymentError())
	}

	response := &SendPaymentResponse{
		PaymentHashHex: hex.EncodeToString(result.GetPaymentHash()),
		PreimageHex:    hex.EncodeToString(result.GetPaymentPreimage()),
		PaymentRequest: paymentRequest,
	}
	svc.Logger.Infof("Paid invoice payment_request:%s preimage:%s", paymentRequest, response.PreimageHex)
	return response, nil
}

func (svc *WalletService) ListInvoices(ctx context.Context, userID int64) ([]models.Invoice, error) {
	invoices, err := svc.Ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return invoices, nil
}

func (svc *WalletService) FindInvoiceByPaymentRequest(ctx context.Context, paymentRequest string) (*models.Invoice, error) {
	invoice, err := svc.Ledger.FindByPaymentRequest(ctx, paymentRequest)
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
