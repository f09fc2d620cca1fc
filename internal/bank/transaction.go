package bank

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxOpen     TransactionType = "OPEN"
	TxDeposit  TransactionType = "DEPOSIT"
	TxWithdraw TransactionType = "WITHDRAW"
)

// Transaction is an immutable passbook entry. One is appended per
// balance-affecting operation (including account opening) and never mutated
// afterwards. Balance is a snapshot of the account balance right after the
// operation completed.
type Transaction struct {
	ID      uuid.UUID       `json:"id"`
	Date    time.Time       `json:"date"`
	Type    TransactionType `json:"type"`
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
}

// timeNow is swapped out in tests to simulate calendar day changes.
var timeNow = time.Now

func newTransaction(txType TransactionType, amount, balance decimal.Decimal) Transaction {
	return Transaction{
		ID:      uuid.New(),
		Date:    timeNow(),
		Type:    txType,
		Amount:  amount,
		Balance: balance,
	}
}
