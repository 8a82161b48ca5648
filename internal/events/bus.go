// Package events publishes domain events to the message bus.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
)

// SubjectEntryCreated carries an EntryCreated payload after each committed
// ledger posting.
const SubjectEntryCreated = "ledger.entry.created"

// Bus publishes raw messages on a subject.
type Bus interface {
	Publish(subject string, data []byte) error
}

// EntryCreated is the JSON payload of SubjectEntryCreated.
type EntryCreated struct {
	TransactionID string          `json:"transactionId"`
	AccountID     string          `json:"userId"`
	Kind          string          `json:"type"`
	PaymentMethod string          `json:"paymentMethod"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	Effect        string          `json:"effect"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// PublishJSON encodes v and publishes it on subject.
func PublishJSON(bus Bus, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return bus.Publish(subject, data)
}

// NATSBus publishes over a NATS connection.
type NATSBus struct {
	nc *nats.Conn
}

// NewNATSBus wraps an established connection.
func NewNATSBus(nc *nats.Conn) *NATSBus {
	return &NATSBus{nc: nc}
}

func (b *NATSBus) Publish(subject string, data []byte) error {
	return b.nc.Publish(subject, data)
}

// NopBus drops every message. It is used when NATS_URL is unset.
type NopBus struct{}

func (NopBus) Publish(string, []byte) error { return nil }

// Message is one publication captured by MemoryBus.
type Message struct {
	Subject string
	Data    []byte
}

// MemoryBus records publications in order. Safe for concurrent use.
type MemoryBus struct {
	mu       sync.Mutex
	messages []Message
}

func (b *MemoryBus) Publish(subject string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, Message{Subject: subject, Data: append([]byte(nil), data...)})
	return nil
}

// Messages returns a copy of everything published so far.
func (b *MemoryBus) Messages() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.messages...)
}
