package service

import (
	"testing"

	"github.com/pleb-devs/pleb-wallet-backend/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubsubDeliversToTopicSubscribersOnly(t *testing.T) {
	ps := NewPubsub()
	chUser21 := make(chan models.Invoice, 1)
	chUser42 := make(chan models.Invoice, 1)
	ps.Subscribe(21, chUser21)
	ps.Subscribe(42, chUser42)

	ps.Publish(21, models.Invoice{PaymentRequest: "lnbcrt1", UserID: 21})

	invoice := <-chUser21
	assert.Equal(t, "lnbcrt1", invoice.PaymentRequest)
	assert.Empty(t, chUser42)
}

func TestPubsubUnsubscribeClosesChannel(t *testing.T) {
	ps := NewPubsub()
	ch := make(chan models.Invoice, 1)
	subID := ps.Subscribe(21, ch)

	ps.Unsubscribe(subID, 21)
	_, open := <-ch
	require.False(t, open)

	// Publishing after unsubscribe must not panic on the closed channel.
	ps.Publish(21, models.Invoice{PaymentRequest: "lnbcrt1", UserID: 21})
}
