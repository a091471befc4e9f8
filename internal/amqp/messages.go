package amqp

import (
	"encoding/json"
	"time"
)

type (
	Entity string
	Action string
)

const (
	EntityAccount     Entity = "account"
	EntityCategory    Entity = "category"
	EntityTag         Entity = "tag"
	EntityTransaction Entity = "transaction"
	EntityTransfer    Entity = "transfer"
	EntitySettings    Entity = "settings"
	EntityRates       Entity = "rates"
	EntityLedger      Entity = "ledger"
)

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionImported Action = "imported"
	ActionReset    Action = "reset"
)

// LedgerEvent announces a committed change. Consumers fetch the record by ID
// when they need its content.
type LedgerEvent struct {
	Entity    Entity    `json:"entity"`
	Action    Action    `json:"action"`
	ID        int64     `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(entity Entity, action Action, id int64) *LedgerEvent {
	return &LedgerEvent{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// RoutingKey is "<entity>.<action>".
func (e *LedgerEvent) RoutingKey() string {
	return string(e.Entity) + "." + string(e.Action)
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
