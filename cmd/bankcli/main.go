// bankcli is the interactive passbook console. It works against the local
// ledger by default; when a server answers /ping at the configured base URL,
// every operation is dispatched there instead.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"passbook-ledger/internal/bank"
	"passbook-ledger/internal/config"
	"passbook-ledger/internal/remote"
	"passbook-ledger/internal/storage"
)

func main() {
	// Keep the menu readable: only warnings and errors reach the terminal.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := config.Load()

	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot open data directory:", err)
		os.Exit(1)
	}
	ledger := bank.Open(cfg.BankName, store, logger)

	ctx := context.Background()
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	svc := remote.Choose(pingCtx, remote.NewClient(cfg.RemoteBaseURL), ledger, logger)
	cancel()

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("\n===== %s =====\n", cfg.BankName)
		fmt.Println("1. Create Account")
		fmt.Println("2. Deposit Money")
		fmt.Println("3. Withdraw Money")
		fmt.Println("4. Check Balance")
		fmt.Println("5. Display Account Information")
		fmt.Println("6. Print Passbook")
		fmt.Println("7. Exit")

		switch prompt(sc, "Choose an option: ") {
		case "1":
			createAccount(ctx, sc, svc)
		case "2":
			mutate(ctx, sc, svc.Deposit, "deposited")
		case "3":
			mutate(ctx, sc, svc.Withdraw, "withdrawn")
		case "4":
			checkBalance(ctx, sc, svc)
		case "5":
			displayInfo(ctx, sc, svc)
		case "6":
			printPassbook(ctx, sc, svc)
		case "7":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Println("Unknown option")
		}
	}
}

func createAccount(ctx context.Context, sc *bufio.Scanner, svc bank.Service) {
	accountType, err := bank.ParseAccountType(prompt(sc, "Enter Account Type (savings/current): "))
	if err != nil {
		fmt.Println(err)
		return
	}
	holder := prompt(sc, "Enter Holder Name: ")
	deposit, err := readAmount(sc, "Enter Initial Deposit: ")
	if err != nil {
		fmt.Println(err)
		return
	}

	limit := decimal.Zero
	if accountType == bank.Savings {
		raw := prompt(sc, "Enter Daily Withdrawal Limit (empty for default): ")
		if raw != "" {
			limit, err = decimal.NewFromString(raw)
			if err != nil {
				fmt.Println("invalid limit:", err)
				return
			}
		}
	}

	info, err := svc.CreateAccount(ctx, accountType, holder, deposit, limit)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%s account created. Account Number: %d\n", info.Type, info.Number)
}

func mutate(ctx context.Context, sc *bufio.Scanner, op func(context.Context, int64, decimal.Decimal) (bank.Info, error), verb string) {
	number, err := readNumber(sc)
	if err != nil {
		fmt.Println(err)
		return
	}
	amount, err := readAmount(sc, "Enter Amount: ")
	if err != nil {
		fmt.Println(err)
		return
	}
	info, err := op(ctx, number, amount)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%s %s. New Balance: %s\n", amount, verb, info.Balance)
}

func checkBalance(ctx context.Context, sc *bufio.Scanner, svc bank.Service) {
	number, err := readNumber(sc)
	if err != nil {
		fmt.Println(err)
		return
	}
	info, err := svc.GetAccount(ctx, number)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("Account: %d | Holder: %s | Balance: %s\n", info.Number, info.Holder, info.Balance)
}

func displayInfo(ctx context.Context, sc *bufio.Scanner, svc bank.Service) {
	number, err := readNumber(sc)
	if err != nil {
		fmt.Println(err)
		return
	}
	info, err := svc.GetAccount(ctx, number)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("Account No:", info.Number)
	fmt.Println("Holder Name:", info.Holder)
	fmt.Println("Type:", info.Type)
	fmt.Println("Balance:", info.Balance)
	if info.DailyLimit != nil {
		fmt.Println("Daily Withdrawal Limit:", info.DailyLimit)
	}
}

func printPassbook(ctx context.Context, sc *bufio.Scanner, svc bank.Service) {
	number, err := readNumber(sc)
	if err != nil {
		fmt.Println(err)
		return
	}
	from, err := readDate(sc, "From date (YYYY-MM-DD, empty for open): ")
	if err != nil {
		fmt.Println(err)
		return
	}
	to, err := readDate(sc, "To date (YYYY-MM-DD, empty for open): ")
	if err != nil {
		fmt.Println(err)
		return
	}

	txns, err := svc.Passbook(ctx, number, from, to)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("\n--- PASSBOOK ---")
	if len(txns) == 0 {
		fmt.Println("-- no transactions --")
	}
	for _, tx := range txns {
		fmt.Printf("%s | %s | %s | Balance: %s\n",
			tx.Date.Format(time.RFC3339), tx.Type, tx.Amount, tx.Balance)
	}
	fmt.Println("----------------")
}

func prompt(sc *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}

func readNumber(sc *bufio.Scanner) (int64, error) {
	raw := prompt(sc, "Enter Account Number: ")
	number, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account number %q", raw)
	}
	return number, nil
}

func readAmount(sc *bufio.Scanner, label string) (decimal.Decimal, error) {
	raw := prompt(sc, label)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

func readDate(sc *bufio.Scanner, label string) (time.Time, error) {
	raw := prompt(sc, label)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t, nil
}
