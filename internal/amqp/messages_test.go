package amqp

import (
	"testing"
	"time"
)

func TestTransactionSyncMessageJSON(t *testing.T) {
	msg := NewTransactionSyncMessage(42)
	if msg.ID != 42 {
		t.Errorf("ID = %d, want 42", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	back, err := TransactionSyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if back.ID != msg.ID {
		t.Errorf("ID after round trip = %d, want %d", back.ID, msg.ID)
	}
	if !back.Timestamp.Truncate(time.Millisecond).Equal(msg.Timestamp.Truncate(time.Millisecond)) {
		t.Errorf("Timestamp after round trip = %v, want %v", back.Timestamp, msg.Timestamp)
	}
}

func TestTransactionSyncMessageFromInvalidJSON(t *testing.T) {
	if _, err := TransactionSyncMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
