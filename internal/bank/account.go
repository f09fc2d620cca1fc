package bank

import (
	"github.com/shopspring/decimal"

	"passbook-ledger/internal/errors"
)

type AccountType string

const (
	Savings AccountType = "savings"
	Current AccountType = "current"
)

func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case Savings:
		return Savings, nil
	case Current:
		return Current, nil
	default:
		return "", errors.ErrInvalidAccountType
	}
}

// dateLayout is the calendar-date granularity used by the savings daily cap.
const dateLayout = "2006-01-02"

// DefaultDailyLimit applies to savings accounts created without an explicit
// limit.
var DefaultDailyLimit = decimal.NewFromInt(20000)

// Account is the common contract of the two variants. Deposit behaves the
// same for both; Withdraw enforces the variant's policy and must leave
// balance and history untouched when it fails.
type Account interface {
	Number() int64
	Holder() string
	Balance() decimal.Decimal
	Type() AccountType
	Transactions() []Transaction

	Deposit(amount decimal.Decimal) error
	Withdraw(amount decimal.Decimal) error

	// record produces the persistence form; accounts are only ever built
	// and restored by the ledger, hence unexported.
	record() accountRecord
}

// baseAccount carries the state and behavior shared by both variants.
type baseAccount struct {
	number  int64
	holder  string
	balance decimal.Decimal
	txns    []Transaction
}

func (a *baseAccount) Number() int64            { return a.number }
func (a *baseAccount) Holder() string           { return a.holder }
func (a *baseAccount) Balance() decimal.Decimal { return a.balance }

// Transactions returns a copy of the history so callers cannot mutate it.
func (a *baseAccount) Transactions() []Transaction {
	out := make([]Transaction, len(a.txns))
	copy(out, a.txns)
	return out
}

func (a *baseAccount) log(txType TransactionType, amount decimal.Decimal) {
	a.txns = append(a.txns, newTransaction(txType, amount, a.balance))
}

func (a *baseAccount) Deposit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return errors.ErrInvalidAmount
	}
	a.balance = a.balance.Add(amount)
	a.log(TxDeposit, amount)
	return nil
}

// CurrentAccount has no withdrawal cap beyond the balance itself.
type CurrentAccount struct {
	baseAccount
}

func newCurrentAccount(number int64, holder string, initialDeposit decimal.Decimal) *CurrentAccount {
	a := &CurrentAccount{baseAccount{number: number, holder: holder, balance: initialDeposit}}
	a.log(TxOpen, initialDeposit)
	return a
}

func (a *CurrentAccount) Type() AccountType { return Current }

func (a *CurrentAccount) Withdraw(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return errors.ErrInvalidAmount
	}
	if amount.GreaterThan(a.balance) {
		return errors.ErrInsufficientBalance
	}
	a.balance = a.balance.Sub(amount)
	a.log(TxWithdraw, amount)
	return nil
}

func (a *CurrentAccount) record() accountRecord {
	return accountRecord{
		AccountNumber: a.number,
		HolderName:    a.holder,
		Balance:       a.balance,
		Transactions:  a.Transactions(),
	}
}

// SavingsAccount caps the cumulative amount withdrawn per local calendar day.
// The day rollover is lazy: the counter resets only when a withdrawal is
// attempted on a later date, never via a timer.
type SavingsAccount struct {
	baseAccount
	dailyLimit     decimal.Decimal
	withdrawnToday decimal.Decimal
	today          string
}

func newSavingsAccount(number int64, holder string, initialDeposit, dailyLimit decimal.Decimal) *SavingsAccount {
	a := &SavingsAccount{
		baseAccount: baseAccount{number: number, holder: holder, balance: initialDeposit},
		dailyLimit:  dailyLimit,
		today:       timeNow().Format(dateLayout),
	}
	a.log(TxOpen, initialDeposit)
	return a
}

func (a *SavingsAccount) Type() AccountType { return Savings }

func (a *SavingsAccount) DailyLimit() decimal.Decimal     { return a.dailyLimit }
func (a *SavingsAccount) WithdrawnToday() decimal.Decimal { return a.withdrawnToday }

func (a *SavingsAccount) Withdraw(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return errors.ErrInvalidAmount
	}
	today := timeNow().Format(dateLayout)
	if today != a.today {
		a.withdrawnToday = decimal.Zero
		a.today = today
	}
	// Balance check comes first; the limit is evaluated against the
	// cumulative amount withdrawn this calendar day.
	if amount.GreaterThan(a.balance) {
		return errors.ErrInsufficientBalance
	}
	if a.withdrawnToday.Add(amount).GreaterThan(a.dailyLimit) {
		return errors.ErrDailyLimitExceeded
	}
	a.balance = a.balance.Sub(amount)
	a.withdrawnToday = a.withdrawnToday.Add(amount)
	a.log(TxWithdraw, amount)
	return nil
}

func (a *SavingsAccount) record() accountRecord {
	limit := a.dailyLimit
	withdrawn := a.withdrawnToday
	return accountRecord{
		AccountNumber:  a.number,
		HolderName:     a.holder,
		Balance:        a.balance,
		Transactions:   a.Transactions(),
		DailyLimit:     &limit,
		WithdrawnToday: &withdrawn,
		Today:          a.today,
	}
}
