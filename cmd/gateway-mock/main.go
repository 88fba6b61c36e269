// gateway-mock is a local stand-in for the Paygate auth and gateway hosts.
// It issues tokens for all three grant types, revokes them, and serves
// in-memory customer and transaction endpoints so the SDK can be exercised
// without sandbox credentials. Development aid only; nothing persists.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"paygate-sdk/logging"
)

type mockState struct {
	mu           sync.Mutex
	tokens       map[string]time.Time // access token -> expiry
	customers    map[string]map[string]interface{}
	transactions map[string]map[string]interface{}
	logger       logging.Logger
}

func main() {
	godotenv.Load()

	logger, err := logging.NewZapLogger(logging.LogConfig{
		Level:  logging.ParseLevel(os.Getenv("PAYGATE_LOG_LEVEL")),
		Prefix: "gateway-mock",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	port := os.Getenv("PAYGATE_MOCK_PORT")
	if port == "" {
		port = "8733"
	}

	state := &mockState{
		tokens:       make(map[string]time.Time),
		customers:    make(map[string]map[string]interface{}),
		transactions: make(map[string]map[string]interface{}),
		logger:       logger,
	}

	router := mux.NewRouter()
	router.HandleFunc("/oauth/token", state.handleToken).Methods("POST")
	router.HandleFunc("/oauth/revoke_token", state.handleRevoke).Methods("DELETE")

	router.HandleFunc("/customer-service/customers", state.handleCreateCustomer).Methods("POST")
	router.HandleFunc("/customer-service/customers", state.handleListCustomers).Methods("GET")
	router.HandleFunc("/customer-service/customers/{id}", state.handleGetCustomer).Methods("GET")
	router.HandleFunc("/customer-service/customers/{id}", state.handleDeleteCustomer).Methods("DELETE")

	router.HandleFunc("/transaction-service/transactions", state.handleCreateTransaction).Methods("POST")
	router.HandleFunc("/transaction-service/transactions", state.handleListTransactions).Methods("GET")
	router.HandleFunc("/transaction-service/transactions/{id}", state.handleGetTransaction).Methods("GET")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
	}).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("gateway mock listening", logging.Field{Key: "port", Value: port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func (s *mockState) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed form body")
		return
	}

	grantType := r.PostFormValue("grant_type")
	switch grantType {
	case "client_credentials":
	case "authorization_code":
		if r.PostFormValue("code") == "" {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "code is required")
			return
		}
	case "refresh_token":
		if r.PostFormValue("refresh_token") == "" {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "refresh_token is required")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "unsupported grant_type")
		return
	}

	token := "mock-" + uuid.New().String()
	expiresIn := 3600

	s.mu.Lock()
	s.tokens[token] = time.Now().Add(time.Duration(expiresIn) * time.Second)
	s.mu.Unlock()

	s.logger.Debug("issued token", logging.Field{Key: "grant_type", Value: grantType})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  token,
		"token_type":    "Bearer",
		"expires_in":    expiresIn,
		"refresh_token": "mock-refresh-" + uuid.New().String(),
		"merchant_id":   "mock-merchant",
	})
}

func (s *mockState) handleRevoke(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// requireAuth checks the bearer token and writes the failure itself.
func (s *mockState) requireAuth(w http.ResponseWriter, r *http.Request) bool {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return false
	}

	s.mu.Lock()
	expiry, ok := s.tokens[token]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "unknown token")
		return false
	}
	if time.Now().After(expiry) {
		writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "token expired")
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}

func (s *mockState) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	if !s.requireAuth(w, r) {
		return
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed JSON body")
		return
	}
	if body["email"] == nil || body["email"] == "" {
		writeError(w, http.StatusUnprocessableEntity, "MISSING_FIELD", "email is required")
		return
	}

	id := "cust-" + uuid.New().String()
	body["id"] = id
	body["created_at"] = time.Now().UTC().Format(time.RFC3339)

	s.mu.Lock()
	s.customers[id] = body
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, body)
}

func (s *mockState) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	if !s.requireAuth(w, r) {
		return
	}

	s.mu.Lock()
	customers := make([]map[string]interface{}, 0, len(s.customers))
	for _, c := range s.customers {
		customers = append(customers, c)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"customers": customers,
		"total":     len(customers),
	})
}

func (s *mockState) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	if !s.requireAuth(w, r) {
		return
	}

	id := mux.Vars(r)["id"]
	s.mu.Lock()
	customer, ok := s.customers[id]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "no customer with id "+id)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *mockState) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if !s.requireAuth(w, r) {
		return
	}

	id := mux.Vars(r)["id"]
	s.mu.Lock()
	_, ok := s.customers[id]
	delete(s.customers, id)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "no customer with id "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *mockState) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if !s.requireAuth(w, r) {
		return
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed JSON body")
		return
	}

	amount, _ := body["amount"].(float64)
	if amount <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "INVALID_FIELD", "amount must be positive")
		return
	}
	// Deterministic decline path for exercising the payment error taxonomy.
	if amount == 666 {
		writeError(w, http.StatusPaymentRequired, "CARD_DECLINED", "card declined by issuer")
		return
	}

	id := "txn-" + uuid.New().String()
	body["id"] = id
	body["status"] = "approved"
	body["created_at"] = time.Now().UTC().Format(time.RFC3339)

	s.mu.Lock()
	s.transactions[id] = body
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, body)
}

func (s *mockState) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if !s.requireAuth(w, r) {
		return
	}

	s.mu.Lock()
	transactions := make([]map[string]interface{}, 0, len(s.transactions))
	for _, tx := range s.transactions {
		transactions = append(transactions, tx)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"total":        len(transactions),
	})
}

func (s *mockState) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	if !s.requireAuth(w, r) {
		return
	}

	id := mux.Vars(r)["id"]
	s.mu.Lock()
	tx, ok := s.transactions[id]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "no transaction with id "+id)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
