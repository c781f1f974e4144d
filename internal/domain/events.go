package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated  = "transaction.created"
	EventTypeTransactionReversed = "transaction.reversed"
	EventTypeAccountCreated      = "account.created"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeAccount     = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionCreatedEvent payload
type TransactionCreatedEvent struct {
	TransactionID   int64  `json:"transaction_id"`
	Type            string `json:"type"`
	SourceAccountID int64  `json:"source_account_id"`
	TargetAccountID *int64 `json:"target_account_id,omitempty"`
	Amount          string `json:"amount"`
}

// TransactionReversedEvent payload
type TransactionReversedEvent struct {
	ReversalTransactionID int64  `json:"reversal_transaction_id"`
	OriginalTransactionID int64  `json:"original_transaction_id"`
	Amount                string `json:"amount"`
}

// AccountCreatedEvent payload
type AccountCreatedEvent struct {
	AccountID     int64  `json:"account_id"`
	AccountNumber string `json:"account_number"`
	Type          string `json:"type"`
}
