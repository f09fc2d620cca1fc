package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"passbook-ledger/internal/bank"
	"passbook-ledger/internal/errors"
)

// AccountHandler exposes the ledger over the form-encoded HTTP contract the
// passbook clients consume.
type AccountHandler struct {
	ledger *bank.Ledger
}

func NewAccountHandler(ledger *bank.Ledger) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

// CreateAccount handles POST /create with form fields type, holder, deposit
// and an optional limit for savings accounts.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid form body").WithDetails(err.Error()))
		return
	}

	accountType, err := bank.ParseAccountType(r.PostFormValue("type"))
	if err != nil {
		writeError(w, err)
		return
	}

	holder := r.PostFormValue("holder")
	if holder == "" {
		holder = "Anonymous"
	}

	deposit, err := parseAmount(r.PostFormValue("deposit"))
	if err != nil {
		writeError(w, err)
		return
	}

	limit := decimal.Zero
	if raw := r.PostFormValue("limit"); raw != "" {
		limit, err = parseAmount(raw)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	info, err := h.ledger.CreateAccount(r.Context(), accountType, holder, deposit, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// GetAccount handles GET /account/{id}.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := h.ledger.GetAccount(r.Context(), number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Deposit handles POST /account/{id}/deposit with form field amount.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.ledger.Deposit)
}

// Withdraw handles POST /account/{id}/withdraw with form field amount.
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.ledger.Withdraw)
}

func (h *AccountHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, number int64, amount decimal.Decimal) (bank.Info, error)) {
	number, err := accountNumber(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid form body").WithDetails(err.Error()))
		return
	}
	amount, err := parseAmount(r.PostFormValue("amount"))
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := op(r.Context(), number, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Passbook handles GET /account/{id}/passbook?from=&to= where both bounds
// are optional YYYY-MM-DD dates, inclusive.
func (h *AccountHandler) Passbook(w http.ResponseWriter, r *http.Request) {
	number, err := accountNumber(r)
	if err != nil {
		writeError(w, err)
		return
	}

	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}

	txns, err := h.ledger.Passbook(r.Context(), number, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func accountNumber(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["account_id"]
	number, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || number <= 0 {
		return 0, errors.ErrInvalidAccountID
	}
	return number, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error())
	}
	return amount, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, errors.NewAppError(errors.InvalidInput, "dates must be YYYY-MM-DD").WithDetails(err.Error())
	}
	return t, nil
}
