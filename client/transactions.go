package client

import (
	"context"
	"net/http"
	"time"
)

// TransactionsService charges cards and reports on past payments.
type TransactionsService struct {
	be *backend
}

type Transaction struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customerId"`
	CardID      string    `json:"cardId,omitempty"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

type TransactionRequest struct {
	CustomerID  string  `json:"customerId"`
	CardID      string  `json:"cardId"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description,omitempty"`
}

type RefundRequest struct {
	// Amount refunds partially when set; zero refunds the full amount.
	Amount float64 `json:"amount,omitempty"`
	Reason string  `json:"reason,omitempty"`
}

type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
}

// TransactionListOptions filters listings server-side where the gateway
// supports it (status, date range) and paginates like every other listing.
type TransactionListOptions struct {
	ListOptions
	Status string
	From   time.Time
	To     time.Time
}

func (o TransactionListOptions) query() map[string]string {
	q := o.ListOptions.query()
	if o.Status != "" {
		q["status"] = o.Status
	}
	if !o.From.IsZero() {
		q["from"] = o.From.Format(time.RFC3339)
	}
	if !o.To.IsZero() {
		q["to"] = o.To.Format(time.RFC3339)
	}
	return q
}

// TransactionSummary is a client-side aggregation of a listing.
type TransactionSummary struct {
	Count       int                `json:"count"`
	TotalAmount float64            `json:"totalAmount"`
	ByStatus    map[string]int     `json:"byStatus"`
	ByCurrency  map[string]float64 `json:"byCurrency"`
}

func (s *TransactionsService) Create(ctx context.Context, req *TransactionRequest) (*Transaction, error) {
	var out Transaction
	if err := s.be.do(ctx, http.MethodPost, "/transaction-service/transactions", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TransactionsService) Get(ctx context.Context, id string) (*Transaction, error) {
	var out Transaction
	if err := s.be.do(ctx, http.MethodGet, "/transaction-service/transactions/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TransactionsService) Refund(ctx context.Context, id string, req *RefundRequest) (*Transaction, error) {
	var out Transaction
	if err := s.be.do(ctx, http.MethodPost, "/transaction-service/transactions/"+id+"/refund", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TransactionsService) List(ctx context.Context, opts TransactionListOptions) (*TransactionList, error) {
	var out TransactionList
	if err := s.be.do(ctx, http.MethodGet, "/transaction-service/transactions", opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summary lists transactions and aggregates them locally: overall count and
// amount plus per-status counts and per-currency amounts. Pure
// post-processing over List; no extra gateway semantics.
func (s *TransactionsService) Summary(ctx context.Context, opts TransactionListOptions) (*TransactionSummary, error) {
	list, err := s.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	summary := &TransactionSummary{
		ByStatus:   make(map[string]int),
		ByCurrency: make(map[string]float64),
	}
	for _, tx := range list.Transactions {
		summary.Count++
		summary.TotalAmount += tx.Amount
		summary.ByStatus[tx.Status]++
		summary.ByCurrency[tx.Currency] += tx.Amount
	}
	return summary, nil
}
