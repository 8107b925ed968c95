package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record collections a sync message can refer to.
const (
	CollectionConcerts = "concerts"
	CollectionExpenses = "expenses"
	CollectionInvoices = "invoices"
)

// Actions carried by a sync message.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// RecordSyncMessage tells the export worker that one record in one of the
// three collections changed. It carries only the reference; the worker
// recomputes the derived views from storage.
type RecordSyncMessage struct {
	Collection string    `json:"collection"`
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRecordSyncMessage creates a sync message for one record change.
func NewRecordSyncMessage(collection string, id int64, action string) *RecordSyncMessage {
	return &RecordSyncMessage{
		Collection: collection,
		ID:         id,
		Action:     action,
		Timestamp:  time.Now(),
	}
}

// Validate checks the collection and action tags.
func (m *RecordSyncMessage) Validate() error {
	switch m.Collection {
	case CollectionConcerts, CollectionExpenses, CollectionInvoices:
	default:
		return fmt.Errorf("unknown collection %q", m.Collection)
	}
	switch m.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", m.Action)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordSyncMessageFromJSON creates a message from JSON bytes
func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
