package service

import (
	"sync"

	"github.com/labstack/gommon/random"
	"github.com/pleb-devs/pleb-wallet-backend/db/models"
)

// Pubsub fans settled invoices out to in-process subscribers, keyed by the
// owning user id.
type Pubsub struct {
	mu   sync.RWMutex
	subs map[int64]map[string]chan models.Invoice
}

func NewPubsub() *Pubsub {
	ps := &Pubsub{}
	ps.subs = make(map[int64]map[string]chan models.Invoice)
	return ps
}

func (ps *Pubsub) Subscribe(topic int64, ch chan models.Invoice) (subId string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan models.Invoice)
	}
	subId = random.String(32, random.Hex)
	ps.subs[topic][subId] = ch
	return subId
}

func (ps *Pubsub) Unsubscribe(id string, topic int64) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		return
	}
	if ps.subs[topic][id] == nil {
		return
	}
	close(ps.subs[topic][id])
	delete(ps.subs[topic], id)
}

func (ps *Pubsub) Publish(topic int64, msg models.Invoice) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.subs[topic] == nil {
		return
	}

	for _, ch := range ps.subs[topic] {
		ch <- msg
	}
}
