package service

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/pleb-devs/pleb-wallet-backend/cursor"
	"github.com/pleb-devs/pleb-wallet-backend/ledger"
	"github.com/pleb-devs/pleb-wallet-backend/lnd"
	"github.com/pleb-devs/pleb-wallet-backend/rabbitmq"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

type WalletService struct {
	Config         *Config
	DB             *bun.DB
	Ledger         ledger.Store
	CursorStore    cursor.Store
	LndClient      lnd.LightningClientWrapper
	Logger         *lecho.Logger
	InvoicePubSub  *Pubsub
	RabbitMQClient rabbitmq.Client
}

func (svc *WalletService) GetInfo(ctx context.Context) (*lnrpc.GetInfoResponse, error) {
	info, err := svc.LndClient.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return info, nil
}

func (svc *WalletService) WalletBalance(ctx context.Context) (*lnrpc.WalletBalanceResponse, error) {
	balance, err := svc.LndClient.WalletBalance(ctx, &lnrpc.WalletBalanceRequest{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return balance, nil
}

func (svc *WalletService) ChannelBalance(ctx context.Context) (*lnrpc.ChannelBalanceResponse, error) {
	balance, err := svc.LndClient.ChannelBalance(ctx, &lnrpc.ChannelBalanceRequest{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return balance, nil
}
