package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// LedgerEvent announces a change to the ledger. Days are YYYY-MM-DD; a
// transaction moved to another day carries both the old and the new day.
type LedgerEvent struct {
	Action        string    `json:"action"`
	TransactionID int64     `json:"transaction_id"`
	Day           string    `json:"day"`
	PreviousDay   string    `json:"previous_day,omitempty"`
	Type          string    `json:"type,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

var ErrInvalidEvent = errors.New("invalid ledger event")

func NewLedgerEvent(action string, id int64, day string) *LedgerEvent {
	return &LedgerEvent{
		Action:        action,
		TransactionID: id,
		Day:           day,
		Timestamp:     time.Now().UTC(),
	}
}

// Days returns the distinct days touched by the event.
func (m *LedgerEvent) Days() []string {
	if m.PreviousDay == "" || m.PreviousDay == m.Day {
		return []string{m.Day}
	}
	return []string{m.PreviousDay, m.Day}
}

func (m *LedgerEvent) Validate() error {
	switch m.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return ErrInvalidEvent
	}
	if m.TransactionID <= 0 || m.Day == "" {
		return ErrInvalidEvent
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and validates a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
