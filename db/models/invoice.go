package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Invoice is the ledger record for a single payment request. PaymentRequest
// is assigned by the node and is the idempotency key for reconciliation.
type Invoice struct {
	ID             int64        `json:"id" bun:",pk,autoincrement"`
	PaymentRequest string       `json:"payment_request" bun:",unique,notnull"`
	Value          int64        `json:"value" validate:"gte=0"`
	Memo           string       `json:"memo" bun:",nullzero"`
	Settled        bool         `json:"settled" bun:",notnull,default:false"`
	SettleDate     bun.NullTime `json:"settle_date" bun:",nullzero"`
	Send           bool         `json:"send" bun:",notnull,default:false"`
	UserID         int64        `json:"user_id"`
	CreatedAt      time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt      bun.NullTime `json:"updated_at"`
}

func (i *Invoice) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		i.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Invoice)(nil)
