package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionDeposit  TransactionType = "deposit"
	TransactionWithdraw TransactionType = "withdraw"
	TransactionBuy      TransactionType = "buy"
	TransactionSell     TransactionType = "sell"
	TransactionExchange TransactionType = "exchange"
)

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionCancelled TransactionStatus = "cancelled"
)

// Transaction is an append-only ledger entry. Amount is signed: positive credits
// the user's holding of Currency, negative debits it.
// swagger:model Transaction
type Transaction struct {
	TransactionID  uuid.UUID         `json:"transaction_id" db:"transaction_id"`
	IdempotencyKey string            `json:"-" db:"idempotency_key"`
	UserID         uuid.UUID         `json:"user_id" db:"user_id"`
	Currency       string            `json:"currency" db:"currency"`
	Type           TransactionType   `json:"type" db:"type"`
	Amount         money.Money       `json:"amount" db:"amount"`
	Fee            money.Money       `json:"fee" db:"fee"`
	FinalAmount    money.Money       `json:"final_amount" db:"final_amount"`
	Status         TransactionStatus `json:"status" db:"status"`
	ReferenceID    *string           `json:"reference_id,omitempty" db:"reference_id"`
	Metadata       Metadata          `json:"metadata,omitempty" db:"metadata"`
	Description    string            `json:"description" db:"description"`
	ProcessedAt    *time.Time        `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
}

// TransactionFilter narrows transaction listings. Zero fields match everything.
type TransactionFilter struct {
	UserID   uuid.UUID
	Currency string
	Type     TransactionType
	Status   TransactionStatus
	Limit    int
	Offset   int
}

// TransactionsResponse is a page of ledger entries.
// swagger:model TransactionsResponse
type TransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}
