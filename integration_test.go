package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"passbook-ledger/internal/config"
	"passbook-ledger/internal/server"
)

// IntegrationTestSuite runs the full passbook flow over HTTP against a
// server backed by the postgres store, including a restart to prove state
// and numbering survive a reload.
type IntegrationTestSuite struct {
	suite.Suite
	pgContainer    *postgres.PostgresContainer
	serverInstance *server.Server
	baseURL        string
	client         *http.Client
	cfg            *config.Config
}

func (suite *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("passbook"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		suite.T().Fatalf("Failed to start postgres container: %s", err)
	}
	suite.pgContainer = pgContainer

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		suite.T().Fatalf("Failed to get connection string: %s", err)
	}

	suite.cfg = &config.Config{
		ServerPort:  "0", // Let OS choose a free port
		BankName:    "Integration Bank",
		StoreDriver: "postgres",
		DatabaseURL: connStr,
	}

	if err := suite.startApplicationServer(); err != nil {
		suite.T().Fatalf("Failed to start application server: %s", err)
	}

	suite.client = &http.Client{Timeout: 30 * time.Second}
}

func (suite *IntegrationTestSuite) startApplicationServer() error {
	serverInstance, port, err := server.StartServer(suite.cfg)
	if err != nil {
		return err
	}
	suite.serverInstance = serverInstance
	suite.baseURL = "http://localhost:" + port
	return suite.waitForServerReady()
}

func (suite *IntegrationTestSuite) waitForServerReady() error {
	timeout := 30 * time.Second
	start := time.Now()

	for time.Since(start) < timeout {
		resp, err := http.Get(suite.baseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

func (suite *IntegrationTestSuite) restartApplicationServer() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	suite.Require().NoError(suite.serverInstance.Stop(ctx))
	suite.Require().NoError(suite.startApplicationServer())
}

func (suite *IntegrationTestSuite) TearDownSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if suite.serverInstance != nil {
		suite.serverInstance.Stop(ctx)
	}
	if suite.pgContainer != nil {
		suite.pgContainer.Terminate(ctx)
	}
}

// Helper methods for API calls

func (suite *IntegrationTestSuite) postForm(path string, form url.Values) (*http.Response, string) {
	resp, err := suite.client.PostForm(suite.baseURL+path, form)
	suite.Require().NoError(err)
	body, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	resp.Body.Close()
	return resp, string(body)
}

func (suite *IntegrationTestSuite) get(path string) (*http.Response, string) {
	resp, err := suite.client.Get(suite.baseURL + path)
	suite.Require().NoError(err)
	body, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	resp.Body.Close()
	return resp, string(body)
}

func (suite *IntegrationTestSuite) parseResponse(body string) map[string]interface{} {
	var parsed map[string]interface{}
	suite.Require().NoError(json.Unmarshal([]byte(body), &parsed), "body: %s", body)
	return parsed
}

// Flow steps

func (suite *IntegrationTestSuite) stepHealthCheck() {
	resp, body := suite.get("/health")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("healthy", suite.parseResponse(body)["status"])

	resp, body = suite.get("/ping")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("pong", strings.TrimSpace(body))
}

func (suite *IntegrationTestSuite) stepCreateAccounts() {
	resp, body := suite.postForm("/create", url.Values{
		"type": {"savings"}, "holder": {"Asha"}, "deposit": {"1000"}, "limit": {"500"},
	})
	suite.Equal(http.StatusCreated, resp.StatusCode, body)
	acct := suite.parseResponse(body)
	suite.Equal(float64(1000), acct["accountNumber"])
	suite.Equal("savings", acct["type"])
	suite.Equal("1000", acct["balance"])

	resp, body = suite.postForm("/create", url.Values{
		"type": {"current"}, "holder": {"Ben"}, "deposit": {"100"},
	})
	suite.Equal(http.StatusCreated, resp.StatusCode, body)
	acct = suite.parseResponse(body)
	suite.Equal(float64(1001), acct["accountNumber"])
	suite.Equal("current", acct["type"])
}

func (suite *IntegrationTestSuite) stepDepositAndWithdraw() {
	resp, body := suite.postForm("/account/1000/deposit", url.Values{"amount": {"200"}})
	suite.Equal(http.StatusOK, resp.StatusCode, body)
	suite.Equal("1200", suite.parseResponse(body)["balance"])

	resp, body = suite.postForm("/account/1000/withdraw", url.Values{"amount": {"300"}})
	suite.Equal(http.StatusOK, resp.StatusCode, body)
	suite.Equal("900", suite.parseResponse(body)["balance"])
}

func (suite *IntegrationTestSuite) stepDailyLimit() {
	// 300 already withdrawn today against a limit of 500.
	resp, body := suite.postForm("/account/1000/withdraw", url.Values{"amount": {"250"}})
	suite.Equal(http.StatusConflict, resp.StatusCode, body)
	suite.Equal("daily_limit_exceeded", suite.parseResponse(body)["code"])

	resp, body = suite.get("/account/1000")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("900", suite.parseResponse(body)["balance"])
}

func (suite *IntegrationTestSuite) stepInsufficientBalance() {
	resp, body := suite.postForm("/account/1001/withdraw", url.Values{"amount": {"150"}})
	suite.Equal(http.StatusConflict, resp.StatusCode, body)
	suite.Equal("insufficient_balance", suite.parseResponse(body)["code"])
}

func (suite *IntegrationTestSuite) stepInvalidAmount() {
	resp, body := suite.postForm("/account/1001/deposit", url.Values{"amount": {"-5"}})
	suite.Equal(http.StatusBadRequest, resp.StatusCode, body)
	suite.Equal("invalid_amount", suite.parseResponse(body)["code"])
}

func (suite *IntegrationTestSuite) stepAccountNotFound() {
	resp, body := suite.get("/account/4242")
	suite.Equal(http.StatusNotFound, resp.StatusCode, body)
	suite.Equal("account_not_found", suite.parseResponse(body)["code"])
}

func (suite *IntegrationTestSuite) stepPassbook() {
	resp, body := suite.get("/account/1000/passbook")
	suite.Equal(http.StatusOK, resp.StatusCode)

	var txns []map[string]interface{}
	suite.Require().NoError(json.Unmarshal([]byte(body), &txns))
	suite.Require().Len(txns, 3)
	suite.Equal("OPEN", txns[0]["type"])
	suite.Equal("DEPOSIT", txns[1]["type"])
	suite.Equal("WITHDRAW", txns[2]["type"])

	today := time.Now().Format("2006-01-02")
	resp, body = suite.get("/account/1000/passbook?from=" + today + "&to=" + today)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Require().NoError(json.Unmarshal([]byte(body), &txns))
	suite.Len(txns, 3, "today's range includes all of today's transactions")

	resp, body = suite.get("/account/1000/passbook?from=1999-01-01&to=1999-12-31")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("[]", strings.TrimSpace(body))
}

func (suite *IntegrationTestSuite) stepRestartPreservesState() {
	suite.restartApplicationServer()

	resp, body := suite.get("/account/1000")
	suite.Equal(http.StatusOK, resp.StatusCode, body)
	acct := suite.parseResponse(body)
	suite.Equal("900", acct["balance"])
	suite.Equal("savings", acct["type"])
	suite.Equal("500", acct["dailyLimit"])

	// The daily counter survived too, so the cap still holds.
	resp, body = suite.postForm("/account/1000/withdraw", url.Values{"amount": {"250"}})
	suite.Equal(http.StatusConflict, resp.StatusCode, body)

	// Numbering continues after the restart.
	resp, body = suite.postForm("/create", url.Values{
		"type": {"current"}, "holder": {"Cleo"}, "deposit": {"0"},
	})
	suite.Equal(http.StatusCreated, resp.StatusCode, body)
	suite.Equal(float64(1002), suite.parseResponse(body)["accountNumber"])
}

func (suite *IntegrationTestSuite) TestFlow() {
	suite.Run("HealthCheck", suite.stepHealthCheck)
	suite.Run("CreateAccounts", suite.stepCreateAccounts)
	suite.Run("DepositAndWithdraw", suite.stepDepositAndWithdraw)
	suite.Run("DailyLimit", suite.stepDailyLimit)
	suite.Run("InsufficientBalance", suite.stepInsufficientBalance)
	suite.Run("InvalidAmount", suite.stepInvalidAmount)
	suite.Run("AccountNotFound", suite.stepAccountNotFound)
	suite.Run("Passbook", suite.stepPassbook)
	suite.Run("RestartPreservesState", suite.stepRestartPreservesState)
}

func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(IntegrationTestSuite))
}
