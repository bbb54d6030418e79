// Package amqp carries change notifications from the ledger process to the
// sync worker. Messages are hints, not the source of truth: the worker's
// poll loop over the unsynced set delivers anything a lost message missed.
package amqp

import (
	"encoding/json"
	"time"
)

// TransactionSyncMessage tells the worker one transaction needs pushing.
// It carries only the id; the worker reads the full row from the ledger.
type TransactionSyncMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(id int64) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
