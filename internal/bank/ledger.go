package bank

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"passbook-ledger/internal/errors"
	"passbook-ledger/internal/storage"
)

// Store keys. The account-number sequence is persisted separately from the
// ledger document so numbering keeps increasing across reloads regardless of
// what happens to the account map.
const (
	stateKey = "bank"
	seqKey   = "bank_next"

	firstAccountNumber = 1000
)

// accountRecord is the serialized form of one account. DailyLimit doubles as
// the variant discriminator: present means savings, absent means current.
type accountRecord struct {
	AccountNumber  int64            `json:"accountNumber"`
	HolderName     string           `json:"holderName"`
	Balance        decimal.Decimal  `json:"balance"`
	Transactions   []Transaction    `json:"transactions"`
	DailyLimit     *decimal.Decimal `json:"dailyLimit,omitempty"`
	WithdrawnToday *decimal.Decimal `json:"withdrawnToday,omitempty"`
	Today          string           `json:"today,omitempty"`
}

type ledgerDocument struct {
	Name     string          `json:"name"`
	Accounts []accountRecord `json:"accounts"`
}

// Info is the externally visible snapshot of an account. The ledger never
// hands out its internal account pointers.
type Info struct {
	Number     int64            `json:"accountNumber"`
	Holder     string           `json:"holderName"`
	Type       AccountType      `json:"type"`
	Balance    decimal.Decimal  `json:"balance"`
	DailyLimit *decimal.Decimal `json:"dailyLimit,omitempty"`
}

// Ledger owns all accounts and their transaction histories. Every mutating
// operation runs under the mutex and persists the whole state before
// returning; persistence failures are logged, never surfaced to the caller.
type Ledger struct {
	mu       sync.Mutex
	name     string
	accounts map[int64]Account
	store    storage.Store
	logger   *slog.Logger
}

// Open builds a ledger backed by the given store and restores any previously
// saved state. A missing or corrupt store yields an empty ledger; corruption
// is logged, not raised.
func Open(name string, store storage.Store, logger *slog.Logger) *Ledger {
	l := &Ledger{
		name:     name,
		accounts: make(map[int64]Account),
		store:    store,
		logger:   logger,
	}
	l.load()
	return l
}

func (l *Ledger) Name() string { return l.name }

// CreateAccount allocates the next account number, opens the requested
// variant with the initial deposit (one OPEN transaction), stores it and
// persists the full state. A zero limit on a savings account means
// DefaultDailyLimit; the limit is ignored for current accounts.
func (l *Ledger) CreateAccount(ctx context.Context, accountType AccountType, holder string, initialDeposit, dailyLimit decimal.Decimal) (Info, error) {
	if accountType != Savings && accountType != Current {
		return Info{}, errors.ErrInvalidAccountType
	}
	if initialDeposit.Sign() < 0 {
		return Info{}, errors.ErrInvalidAmount
	}
	if dailyLimit.Sign() < 0 {
		return Info{}, errors.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	number := l.nextNumber()

	var acct Account
	switch accountType {
	case Savings:
		limit := dailyLimit
		if limit.IsZero() {
			limit = DefaultDailyLimit
		}
		acct = newSavingsAccount(number, holder, initialDeposit, limit)
	case Current:
		acct = newCurrentAccount(number, holder, initialDeposit)
	}

	l.accounts[number] = acct
	l.persist()

	l.logger.Info("account created",
		"account_number", number,
		"type", accountType,
		"holder", holder,
		"initial_deposit", initialDeposit)
	return l.info(acct), nil
}

// GetAccount returns a snapshot of the account; no mutation.
func (l *Ledger) GetAccount(ctx context.Context, number int64) (Info, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[number]
	if !ok {
		return Info{}, errors.ErrAccountNotFound
	}
	return l.info(acct), nil
}

func (l *Ledger) Deposit(ctx context.Context, number int64, amount decimal.Decimal) (Info, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[number]
	if !ok {
		return Info{}, errors.ErrAccountNotFound
	}
	if err := acct.Deposit(amount); err != nil {
		return Info{}, err
	}
	l.persist()
	l.logger.Info("deposit", "account_number", number, "amount", amount, "balance", acct.Balance())
	return l.info(acct), nil
}

func (l *Ledger) Withdraw(ctx context.Context, number int64, amount decimal.Decimal) (Info, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[number]
	if !ok {
		return Info{}, errors.ErrAccountNotFound
	}
	if err := acct.Withdraw(amount); err != nil {
		return Info{}, err
	}
	l.persist()
	l.logger.Info("withdrawal", "account_number", number, "amount", amount, "balance", acct.Balance())
	return l.info(acct), nil
}

// Passbook returns the account's transactions within [from 00:00:00,
// to 23:59:59] local time, inclusive, open-ended on whichever side is the
// zero time. Order is preserved and no matches is an empty slice, not an
// error.
func (l *Ledger) Passbook(ctx context.Context, number int64, from, to time.Time) ([]Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[number]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}

	var start, end time.Time
	if !from.IsZero() {
		y, m, d := from.Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, from.Location())
	}
	if !to.IsZero() {
		y, m, d := to.Date()
		end = time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), to.Location())
	}

	out := make([]Transaction, 0)
	for _, tx := range acct.Transactions() {
		if !start.IsZero() && tx.Date.Before(start) {
			continue
		}
		if !end.IsZero() && tx.Date.After(end) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (l *Ledger) info(acct Account) Info {
	info := Info{
		Number:  acct.Number(),
		Holder:  acct.Holder(),
		Type:    acct.Type(),
		Balance: acct.Balance(),
	}
	if sa, ok := acct.(*SavingsAccount); ok {
		limit := sa.DailyLimit()
		info.DailyLimit = &limit
	}
	return info
}

// nextNumber reads, increments and writes back the persisted sequence.
// Numbers start at firstAccountNumber and are never reused.
func (l *Ledger) nextNumber() int64 {
	next := int64(firstAccountNumber)
	raw, ok, err := l.store.Read(seqKey)
	if err != nil {
		l.logger.Error("reading account-number sequence failed", "error", err)
	} else if ok {
		v, perr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if perr != nil {
			l.logger.Error("account-number sequence is corrupt, reseeding",
				"code", errors.PersistenceCorrupt, "value", raw, "error", perr)
		} else {
			next = v
		}
	}
	if err := l.store.Write(seqKey, strconv.FormatInt(next+1, 10)); err != nil {
		l.logger.Error("writing account-number sequence failed", "error", err)
	}
	return next
}

// persist serializes the whole ledger as one document. Last writer wins;
// errors are logged and swallowed so callers are never interrupted by
// storage trouble. Callers must hold the mutex.
func (l *Ledger) persist() {
	doc := ledgerDocument{Name: l.name, Accounts: make([]accountRecord, 0, len(l.accounts))}
	for _, acct := range l.accounts {
		doc.Accounts = append(doc.Accounts, acct.record())
	}
	sort.Slice(doc.Accounts, func(i, j int) bool {
		return doc.Accounts[i].AccountNumber < doc.Accounts[j].AccountNumber
	})

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		l.logger.Error("serializing ledger state failed", "error", err)
		return
	}
	if err := l.store.Write(stateKey, string(data)); err != nil {
		l.logger.Error("persisting ledger state failed", "error", err)
	}
}

// load restores accounts from the store, reviving each record into the right
// variant by the presence of its dailyLimit field. Histories come back
// verbatim, in order.
func (l *Ledger) load() {
	raw, ok, err := l.store.Read(stateKey)
	if err != nil {
		l.logger.Error("reading ledger state failed", "error", err)
		return
	}
	if !ok {
		return
	}

	var doc ledgerDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		l.logger.Error("stored ledger state is corrupt, starting empty",
			"code", errors.PersistenceCorrupt, "error", err)
		return
	}

	if doc.Name != "" {
		l.name = doc.Name
	}
	for _, rec := range doc.Accounts {
		l.accounts[rec.AccountNumber] = reviveAccount(rec)
	}
	l.logger.Info("ledger state restored", "accounts", len(doc.Accounts))
}

func reviveAccount(rec accountRecord) Account {
	base := baseAccount{
		number:  rec.AccountNumber,
		holder:  rec.HolderName,
		balance: rec.Balance,
		txns:    rec.Transactions,
	}
	if rec.DailyLimit == nil {
		return &CurrentAccount{base}
	}
	sa := &SavingsAccount{
		baseAccount: base,
		dailyLimit:  *rec.DailyLimit,
		today:       rec.Today,
	}
	if rec.WithdrawnToday != nil {
		sa.withdrawnToday = *rec.WithdrawnToday
	}
	return sa
}
