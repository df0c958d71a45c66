package amqp

import (
	"encoding/json"
	"errors"
	"fmt"

	"smartspend/internal/ports"
)

var ErrInvalidEvent = errors.New("invalid transaction event")

// EncodeEvent serializes evt for the wire.
func EncodeEvent(evt ports.TransactionEvent) ([]byte, error) {
	if err := validateEvent(evt); err != nil {
		return nil, err
	}
	return json.Marshal(evt)
}

// DecodeEvent parses and validates a wire message.
func DecodeEvent(data []byte) (ports.TransactionEvent, error) {
	var evt ports.TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return ports.TransactionEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := validateEvent(evt); err != nil {
		return ports.TransactionEvent{}, err
	}
	return evt, nil
}

func validateEvent(evt ports.TransactionEvent) error {
	if evt.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	switch evt.Type {
	case ports.EventCreated:
		if evt.Transaction == nil {
			return fmt.Errorf("%w: created event without transaction", ErrInvalidEvent)
		}
	case ports.EventDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, evt.Type)
	}
	return nil
}
