// Package remote dispatches ledger operations to a passbook server instead
// of the local core. A process runs in exactly one mode: Choose probes the
// server once and every subsequent operation goes to whichever side won.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"passbook-ledger/internal/bank"
	"passbook-ledger/internal/errors"
)

const defaultTimeout = 10 * time.Second

// Client implements bank.Service against the HTTP contract.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
}

var _ bank.Service = (*Client)(nil)

// Ping reports whether the server answers its liveness probe.
func (c *Client) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (c *Client) CreateAccount(ctx context.Context, accountType bank.AccountType, holder string, initialDeposit, dailyLimit decimal.Decimal) (bank.Info, error) {
	form := url.Values{
		"type":    {string(accountType)},
		"holder":  {holder},
		"deposit": {initialDeposit.String()},
	}
	if dailyLimit.Sign() > 0 {
		form.Set("limit", dailyLimit.String())
	}
	return c.postForm(ctx, "/create", form)
}

func (c *Client) GetAccount(ctx context.Context, number int64) (bank.Info, error) {
	var info bank.Info
	err := c.get(ctx, fmt.Sprintf("/account/%d", number), &info)
	return info, err
}

func (c *Client) Deposit(ctx context.Context, number int64, amount decimal.Decimal) (bank.Info, error) {
	return c.postForm(ctx, fmt.Sprintf("/account/%d/deposit", number), url.Values{"amount": {amount.String()}})
}

func (c *Client) Withdraw(ctx context.Context, number int64, amount decimal.Decimal) (bank.Info, error) {
	return c.postForm(ctx, fmt.Sprintf("/account/%d/withdraw", number), url.Values{"amount": {amount.String()}})
}

func (c *Client) Passbook(ctx context.Context, number int64, from, to time.Time) ([]bank.Transaction, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		q.Set("to", to.Format("2006-01-02"))
	}
	path := fmt.Sprintf("/account/%d/passbook", number)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var txns []bank.Transaction
	if err := c.get(ctx, path, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (bank.Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return bank.Info{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var info bank.Info
	if err := c.do(req, &info); err != nil {
		return bank.Info{}, err
	}
	return info, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// decodeError rebuilds the server's AppError so errors.Is works the same in
// both execution modes. Non-JSON bodies fall back to the raw text.
func decodeError(status int, body []byte) error {
	var appErr errors.AppError
	if err := json.Unmarshal(body, &appErr); err == nil && appErr.Code != "" {
		return &appErr
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return errors.NewAppError(errors.InternalError, msg)
}

// Choose returns the remote service when the server answers the liveness
// probe, otherwise the local one. The decision is made once per process.
func Choose(ctx context.Context, client *Client, local bank.Service, logger *slog.Logger) bank.Service {
	if client != nil && client.Ping(ctx) {
		logger.Info("remote server detected, dispatching operations to it", "base_url", client.baseURL)
		return client
	}
	logger.Info("no remote server detected, using local ledger")
	return local
}
