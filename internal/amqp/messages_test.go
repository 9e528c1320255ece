package amqp

import (
	"testing"
)

func TestTransactionEventRoundTrip(t *testing.T) {
	ev := NewTransactionEvent(EventUpdated, 42, 7)

	data, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := TransactionEventFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.Action != EventUpdated || got.ID != 42 || got.UserID != 7 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp lost in round trip")
	}
}

func TestTransactionEventFromJSONInvalid(t *testing.T) {
	if _, err := TransactionEventFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
