package bank

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Service is the operation set shared by the local ledger and the remote
// client. Exactly one implementation handles any given operation; local and
// remote state are never mixed.
type Service interface {
	CreateAccount(ctx context.Context, accountType AccountType, holder string, initialDeposit, dailyLimit decimal.Decimal) (Info, error)
	GetAccount(ctx context.Context, number int64) (Info, error)
	Deposit(ctx context.Context, number int64, amount decimal.Decimal) (Info, error)
	Withdraw(ctx context.Context, number int64, amount decimal.Decimal) (Info, error)
	Passbook(ctx context.Context, number int64, from, to time.Time) ([]Transaction, error)
}

var _ Service = (*Ledger)(nil)
