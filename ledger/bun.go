package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pleb-devs/pleb-wallet-backend/db/models"
	"github.com/uptrace/bun"
)

type BunStore struct {
	DB *bun.DB
}

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{DB: db}
}

func (store *BunStore) FindByPaymentRequest(ctx context.Context, paymentRequest string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := store.DB.NewSelect().Model(&invoice).Where("invoice.payment_request = ?", paymentRequest).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (store *BunStore) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	_, err := store.DB.NewInsert().Model(invoice).Exec(ctx)
	return err
}

func (store *BunStore) Settle(ctx context.Context, paymentRequest string, settledAt time.Time) (bool, error) {
	res, err := store.DB.NewUpdate().
		Model((*models.Invoice)(nil)).
		Set("settled = TRUE").
		Set("settle_date = ?", settledAt).
		Set("updated_at = ?", time.Now()).
		Where("payment_request = ? AND settled = FALSE", paymentRequest).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (store *BunStore) ListByUser(ctx context.Context, userID int64) ([]models.Invoice, error) {
	invoices := []models.Invoice{}
	err := store.DB.NewSelect().Model(&invoices).Where("invoice.user_id = ?", userID).OrderExpr("invoice.id DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
