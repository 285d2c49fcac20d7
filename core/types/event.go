package types

import (
	"errors"
	"strings"
)

// AttrMessageID is the attribute carrying the hex message hash of bridge
// notifications.
const AttrMessageID = "messageId"

// ErrEventTypeRequired is returned for events without a type.
var ErrEventTypeRequired = errors.New("types: event type required")

// Event is the flat record a notification renders to before it leaves the
// node. Attribute values are pre-formatted strings.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Validate rejects nil events and events with a blank type.
func (e *Event) Validate() error {
	if e == nil || strings.TrimSpace(e.Type) == "" {
		return ErrEventTypeRequired
	}
	return nil
}

// Attr returns the named attribute, or "" when absent.
func (e *Event) Attr(key string) string {
	if e == nil || e.Attributes == nil {
		return ""
	}
	return e.Attributes[key]
}

// MessageID returns the message hash the event refers to, if any.
func (e *Event) MessageID() string { return e.Attr(AttrMessageID) }
