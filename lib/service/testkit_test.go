package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	btcec "github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/zpay32"
	"github.com/pleb-devs/pleb-wallet-backend/cursor"
	"github.com/pleb-devs/pleb-wallet-backend/db/models"
	"github.com/pleb-devs/pleb-wallet-backend/ledger"
	"github.com/pleb-devs/pleb-wallet-backend/lnd"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
	"google.golang.org/grpc"
)

// streamScript describes one subscription attempt: the events it delivers
// and the error Recv returns once they are drained. A nil error blocks Recv
// until the subscription context is canceled, like a healthy idle stream.
type streamScript struct {
	events []*lnrpc.Invoice
	err    error
}

type mockInvoiceStream struct {
	ctx    context.Context
	mu     sync.Mutex
	script *streamScript
}

func (stream *mockInvoiceStream) Recv() (*lnrpc.Invoice, error) {
	stream.mu.Lock()
	if len(stream.script.events) > 0 {
		event := stream.script.events[0]
		stream.script.events = stream.script.events[1:]
		stream.mu.Unlock()
		return event, nil
	}
	err := stream.script.err
	stream.mu.Unlock()
	if err != nil {
		return nil, err
	}
	<-stream.ctx.Done()
	return nil, stream.ctx.Err()
}

const mockLNDPrivKeyHex = "72b6b22a3b066cc2e48309d132f1e717be5b3f1a9e1eb19d0a2e0f6e13a25b4d"

type mockLND struct {
	mu            sync.Mutex
	scripts       []*streamScript
	subscriptions []*lnrpc.InvoiceSubscription
	privKey       *btcec.PrivateKey
	addIndex      uint64
	addInvoiceErr error
	sendErr       error
	paymentError  string
}

func (mlnd *mockLND) AddInvoice(ctx context.Context, req *lnrpc.Invoice, options ...grpc.CallOption) (*lnrpc.AddInvoiceResponse, error) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	if mlnd.addInvoiceErr != nil {
		return nil, mlnd.addInvoiceErr
	}
	if mlnd.privKey == nil {
		privKeyBytes, err := hex.DecodeString(mockLNDPrivKeyHex)
		if err != nil {
			return nil, err
		}
		mlnd.privKey, _ = btcec.PrivKeyFromBytes(privKeyBytes)
	}
	mlnd.addIndex++
	preimage := sha256.Sum256([]byte(fmt.Sprintf("preimage-%d", mlnd.addIndex)))
	pHash := sha256.Sum256(preimage[:])
	msat := lnwire.MilliSatoshi(1000 * req.Value)
	invoice := &zpay32.Invoice{
		Net:         &chaincfg.RegressionNetParams,
		MilliSat:    &msat,
		Timestamp:   time.Now(),
		PaymentHash: &[32]byte{},
		PaymentAddr: &[32]byte{},
		Description: &req.Memo,
		Features: &lnwire.FeatureVector{
			RawFeatureVector: &lnwire.RawFeatureVector{},
		},
	}
	copy(invoice.PaymentHash[:], pHash[:])
	paymentRequest, err := invoice.Encode(zpay32.MessageSigner{
		SignCompact: func(msg []byte) ([]byte, error) {
			hash := sha256.Sum256(msg)
			return ecdsa.SignCompact(mlnd.privKey, hash[:], true)
		},
	})
	if err != nil {
		return nil, err
	}
	return &lnrpc.AddInvoiceResponse{
		RHash:          pHash[:],
		PaymentRequest: paymentRequest,
		AddIndex:       mlnd.addIndex,
	}, nil
}

func (mlnd *mockLND) SendPaymentSync(ctx context.Context, req *lnrpc.SendRequest, options ...grpc.CallOption) (*lnrpc.SendResponse, error) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	if mlnd.sendErr != nil {
		return nil, mlnd.sendErr
	}
	if mlnd.paymentError != "" {
		return &lnrpc.SendResponse{PaymentError: mlnd.paymentError}, nil
	}
	preimage := sha256.Sum256([]byte(req.PaymentRequest))
	hash := sha256.Sum256(preimage[:])
	return &lnrpc.SendResponse{
		PaymentPreimage: preimage[:],
		PaymentHash:     hash[:],
	}, nil
}

func (mlnd *mockLND) SubscribeInvoices(ctx context.Context, req *lnrpc.InvoiceSubscription, options ...grpc.CallOption) (lnd.SubscribeInvoicesWrapper, error) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	mlnd.subscriptions = append(mlnd.subscriptions, req)
	script := &streamScript{}
	if len(mlnd.scripts) > 0 {
		script = mlnd.scripts[0]
		mlnd.scripts = mlnd.scripts[1:]
	}
	return &mockInvoiceStream{ctx: ctx, script: script}, nil
}

func (mlnd *mockLND) GetInfo(ctx context.Context, req *lnrpc.GetInfoRequest, options ...grpc.CallOption) (*lnrpc.GetInfoResponse, error) {
	return &lnrpc.GetInfoResponse{IdentityPubkey: mlnd.GetMainPubkey(), Alias: "mock"}, nil
}

func (mlnd *mockLND) WalletBalance(ctx context.Context, req *lnrpc.WalletBalanceRequest, options ...grpc.CallOption) (*lnrpc.WalletBalanceResponse, error) {
	return &lnrpc.WalletBalanceResponse{TotalBalance: 21000, ConfirmedBalance: 21000}, nil
}

func (mlnd *mockLND) ChannelBalance(ctx context.Context, req *lnrpc.ChannelBalanceRequest, options ...grpc.CallOption) (*lnrpc.ChannelBalanceResponse, error) {
	return &lnrpc.ChannelBalanceResponse{LocalBalance: &lnrpc.Amount{Sat: 1000}}, nil
}

func (mlnd *mockLND) GetMainPubkey() string {
	return "02mockpubkey"
}

func (mlnd *mockLND) subscriptionRequests() []*lnrpc.InvoiceSubscription {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	return append([]*lnrpc.InvoiceSubscription{}, mlnd.subscriptions...)
}

// memLedger is an in-memory ledger.Store with injectable failures.
type memLedger struct {
	mu           sync.Mutex
	invoices     map[string]models.Invoice
	nextID       int64
	createErr    error
	findErr      error
	settleErrs   int
	settleCounts map[string]int
}

func newMemLedger() *memLedger {
	return &memLedger{
		invoices:     make(map[string]models.Invoice),
		settleCounts: make(map[string]int),
	}
}

func (store *memLedger) FindByPaymentRequest(ctx context.Context, paymentRequest string) (*models.Invoice, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.findErr != nil {
		return nil, store.findErr
	}
	invoice, ok := store.invoices[paymentRequest]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &invoice, nil
}

func (store *memLedger) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.createErr != nil {
		return store.createErr
	}
	store.nextID++
	invoice.ID = store.nextID
	invoice.CreatedAt = time.Now()
	store.invoices[invoice.PaymentRequest] = *invoice
	return nil
}

func (store *memLedger) Settle(ctx context.Context, paymentRequest string, settledAt time.Time) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.settleErrs > 0 {
		store.settleErrs--
		return false, fmt.Errorf("connection refused")
	}
	invoice, ok := store.invoices[paymentRequest]
	if !ok || invoice.Settled {
		return false, nil
	}
	invoice.Settled = true
	invoice.SettleDate = bun.NullTime{Time: settledAt}
	store.invoices[paymentRequest] = invoice
	store.settleCounts[paymentRequest]++
	return true, nil
}

func (store *memLedger) ListByUser(ctx context.Context, userID int64) ([]models.Invoice, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	invoices := []models.Invoice{}
	for _, invoice := range store.invoices {
		if invoice.UserID == userID {
			invoices = append(invoices, invoice)
		}
	}
	return invoices, nil
}

func (store *memLedger) get(paymentRequest string) (models.Invoice, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	invoice, ok := store.invoices[paymentRequest]
	return invoice, ok
}

func (store *memLedger) settleCount(paymentRequest string) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.settleCounts[paymentRequest]
}

// memCursor is an in-memory cursor.Store honoring the clamp contract.
type memCursor struct {
	mu      sync.Mutex
	current cursor.Cursor
}

func (store *memCursor) Load() (cursor.Cursor, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.current, nil
}

func (store *memCursor) Save(cur cursor.Cursor) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if cur.AddIndex > store.current.AddIndex {
		store.current.AddIndex = cur.AddIndex
	}
	if cur.SettleIndex > store.current.SettleIndex {
		store.current.SettleIndex = cur.SettleIndex
	}
	return nil
}

func newTestService(mlnd *mockLND, store *memLedger, cursorStore *memCursor) *WalletService {
	return &WalletService{
		Config:        &Config{SubscriptionConsumerType: "grpc"},
		Ledger:        store,
		CursorStore:   cursorStore,
		LndClient:     mlnd,
		Logger:        lecho.New(io.Discard),
		InvoicePubSub: NewPubsub(),
	}
}
