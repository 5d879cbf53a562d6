package events

import (
	"encoding/json"
	"time"
)

// Actions carried by mutation messages.
const (
	ActionSaved   = "saved"
	ActionDeleted = "deleted"
)

// Entity names carried by mutation messages. They match the storage table
// names so consumers can correlate without a mapping.
const (
	EntityFiscalYear = "fiscal_year"
	EntityAccount    = "accounting_account"
	EntityCategory   = "accounting_operation_category"
	EntityOperation  = "accounting_operation"
	EntityCotisation = "cotisation"
	EntityPerson     = "person"
	EntityMembership = "membership"
)

// MutationMessage tells consumers that one entity changed. It carries only
// the entity kind, the action and the id; consumers fetch the current state
// from the API when they need it.
type MutationMessage struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMutationMessage(entity, action string, id int64) *MutationMessage {
	return &MutationMessage{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
