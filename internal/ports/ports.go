// Package ports declares the outbound collaborators of the ledger and the
// advisor: the local key-value store, the LLM completion service and the
// optional transaction event sink.
package ports

import (
	"context"
	"errors"
	"time"

	"smartspend/internal/core"
)

// ErrCompletionFailed marks any failure of a completion call. Adapters wrap
// their transport and decoding errors with it.
var ErrCompletionFailed = errors.New("completion failed")

// ErrPermanent marks an event handling failure that redelivery cannot fix,
// such as an invalid payload or a rejected sheet request. Consumers drop
// such events instead of requeueing them.
var ErrPermanent = errors.New("permanent failure")

type (
	// KeyValueStore is the persistence collaborator: a synchronous string map
	// on the local device.
	KeyValueStore interface {
		// Get returns the value stored under key. ok is false when the key has
		// never been written.
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		// Set replaces the value stored under key.
		Set(ctx context.Context, key, value string) error
	}

	// ResponseShape constrains a completion to a JSON object whose fields are
	// all required strings.
	ResponseShape struct {
		Name   string
		Fields []string
	}

	// CompletionRequest is a single prompt sent to the LLM.
	CompletionRequest struct {
		Model  string
		Prompt string
		// Shape is nil for raw text completions.
		Shape *ResponseShape
	}

	// Completer sends a prompt to an LLM and returns the raw response text.
	Completer interface {
		Complete(ctx context.Context, req CompletionRequest) (string, error)
	}

	// EventType names a committed ledger mutation.
	EventType string

	// TransactionEvent describes a committed ledger mutation.
	TransactionEvent struct {
		Type        EventType         `json:"type"`
		ID          string            `json:"id"`
		Transaction *core.Transaction `json:"transaction,omitempty"`
		Timestamp   time.Time         `json:"timestamp"`
	}

	// EventPublisher receives ledger events after they are persisted.
	EventPublisher interface {
		PublishTransactionEvent(ctx context.Context, evt TransactionEvent) error
	}

	// TransactionExporter mirrors ledger changes into an external sheet.
	TransactionExporter interface {
		ExportTransaction(ctx context.Context, tx core.Transaction) (ref string, err error)
		RemoveTransaction(ctx context.Context, id string) error
		// ExportedIDs lists the transaction ids currently in the sheet.
		ExportedIDs(ctx context.Context) ([]string, error)
	}
)

const (
	EventCreated EventType = "created"
	EventDeleted EventType = "deleted"
)
