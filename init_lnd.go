package main

import (
	"context"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/pleb-devs/pleb-wallet-backend/lnd"
)

func initLNDClient(c *lnd.Config, ctx context.Context) (*lnd.LNDWrapper, error) {
	client, err := lnd.NewLNDclient(lnd.LNDoptions{
		Address:      c.LNDAddress,
		MacaroonFile: c.LNDMacaroonFile,
		MacaroonHex:  c.LNDMacaroonHex,
		CertFile:     c.LNDCertFile,
		CertHex:      c.LNDCertHex,
	}, ctx)
	if err != nil {
		return nil, err
	}
	getInfo, err := client.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return nil, err
	}
	client.IdentityPubkey = getInfo.IdentityPubkey
	return client, nil
}
