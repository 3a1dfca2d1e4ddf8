package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entities and actions a change notification may carry.
const (
	EntityTransaction = "transaction"
	EntityCategory    = "category"

	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
)

// ChangeEvent tells readers that backend data changed and cached views
// should be rebuilt. It carries no data; readers refetch.
type ChangeEvent struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeEvent(entity, action, id string) *ChangeEvent {
	return &ChangeEvent{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// AffectsCategories reports whether cached category lists are stale.
func (e *ChangeEvent) AffectsCategories() bool {
	return e.Entity == EntityCategory
}

func (e *ChangeEvent) Validate() error {
	switch e.Entity {
	case EntityTransaction, EntityCategory:
	default:
		return fmt.Errorf("unknown entity %q", e.Entity)
	}
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionImported:
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	return nil
}

func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON decodes and validates a message body.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}
