package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ledger event types.
const (
	EventRecordCreated   = "record.created"
	EventRecordDeleted   = "record.deleted"
	EventCategoryRenamed = "category.renamed"
	EventCategoryDeleted = "category.deleted"
	EventImportCompleted = "import.completed"
)

// LedgerEvent tells consumers that a user's ledger changed. It carries only
// what identifies the change; consumers read the data they need from the
// store.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Username  string    `json:"username,omitempty"`
	Kind      string    `json:"kind"`
	RecordID  int64     `json:"record_id,omitempty"`
	Date      string    `json:"date,omitempty"`
	Category  string    `json:"category,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(eventType, username, kind string) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Username:  username,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// AffectsAllUsers reports whether the change touched every user's records,
// as category renames and deletions do.
func (e *LedgerEvent) AffectsAllUsers() bool {
	return e.Username == ""
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and checks a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Type == "" {
		return nil, fmt.Errorf("ledger event without type")
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return nil, fmt.Errorf("ledger event id: %w", err)
	}
	return &e, nil
}
