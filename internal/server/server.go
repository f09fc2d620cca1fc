package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"passbook-ledger/internal/bank"
	"passbook-ledger/internal/config"
	"passbook-ledger/internal/handler"
	"passbook-ledger/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	router *mux.Router
	server *http.Server
	db     *sql.DB
	logger *slog.Logger
	port   string
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, db, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	ledger := bank.Open(cfg.BankName, store, logger)
	router := NewRouter(ledger, logger, db)

	return &Server{
		router: router,
		db:     db,
		logger: logger,
	}, nil
}

// openStore builds the persistence backend the config asks for.
func openStore(cfg *config.Config, logger *slog.Logger) (storage.Store, *sql.DB, error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DBConnectionString())
		if err != nil {
			return nil, nil, err
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := storage.EnsureSchema(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("Successfully connected to database")
		return storage.NewPGStore(db, logger), db, nil
	case "memory":
		return storage.NewMemStore(), nil, nil
	case "file":
		store, err := storage.NewFileStore(cfg.DataDir)
		return store, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewRouter wires the passbook HTTP contract. db may be nil; when present it
// is pinged by the health check.
func NewRouter(ledger *bank.Ledger, logger *slog.Logger, db *sql.DB) *mux.Router {
	accountHandler := handler.NewAccountHandler(ledger)

	router := mux.NewRouter()
	router.Use(requestIDMiddleware, loggingMiddleware(logger), metricsMiddleware)

	// Liveness probe clients use to decide between remote and local mode.
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "pong")
	}).Methods("GET")

	router.HandleFunc("/create", accountHandler.CreateAccount).Methods("POST")
	router.HandleFunc("/account/{account_id}", accountHandler.GetAccount).Methods("GET")
	router.HandleFunc("/account/{account_id}/deposit", accountHandler.Deposit).Methods("POST")
	router.HandleFunc("/account/{account_id}/withdraw", accountHandler.Withdraw).Methods("POST")
	router.HandleFunc("/account/{account_id}/passbook", accountHandler.Passbook).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := db.Ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return router
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", "port", s.port)

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed to start", "error", err)
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if s.db != nil {
		s.db.Close()
	}
	return err
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	// Port 0 marks a test environment; keep its log output out of the way.
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		return nil, "", err
	}

	return server, port, nil
}
