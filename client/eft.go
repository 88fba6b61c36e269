package client

import (
	"context"
	"net/http"
	"time"

	"paygate-sdk/errors"
	"paygate-sdk/internal/utils"
)

// EFTService moves money over bank rails. EFT transactions settle in hours
// rather than milliseconds, so the service includes a polling helper for
// callers that need a terminal status.
type EFTService struct {
	be *backend
}

const (
	EFTStatusPending   = "pending"
	EFTStatusCompleted = "completed"
	EFTStatusFailed    = "failed"
	EFTStatusReturned  = "returned"
)

type EFTTransaction struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customerId"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Direction     string    `json:"direction"`
	Status        string    `json:"status"`
	AccountNumber string    `json:"accountNumber,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
	SettledAt     time.Time `json:"settledAt,omitempty"`
}

type EFTRequest struct {
	CustomerID    string  `json:"customerId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Direction     string  `json:"direction"`
	AccountNumber string  `json:"accountNumber"`
	RoutingNumber string  `json:"routingNumber"`
}

type EFTList struct {
	Transactions []EFTTransaction `json:"transactions"`
	Total        int              `json:"total"`
}

func (s *EFTService) Create(ctx context.Context, req *EFTRequest) (*EFTTransaction, error) {
	var out EFTTransaction
	if err := s.be.do(ctx, http.MethodPost, "/eft-service/transactions", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *EFTService) Get(ctx context.Context, id string) (*EFTTransaction, error) {
	var out EFTTransaction
	if err := s.be.do(ctx, http.MethodGet, "/eft-service/transactions/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *EFTService) List(ctx context.Context, opts ListOptions) (*EFTList, error) {
	var out EFTList
	if err := s.be.do(ctx, http.MethodGet, "/eft-service/transactions", opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// errStillPending marks a poll attempt that saw a non-terminal status.
var errStillPending = errors.APIError("eft transaction has not reached a terminal status", 0)

func isTerminalEFTStatus(status string) bool {
	switch status {
	case EFTStatusCompleted, EFTStatusFailed, EFTStatusReturned:
		return true
	}
	return false
}

// WaitForTransaction polls Get with exponential backoff until the
// transaction reaches completed, failed, or returned, the context expires,
// or the attempts run out. Gateway errors abort the wait immediately; only
// a still-pending status triggers another poll.
func (s *EFTService) WaitForTransaction(ctx context.Context, id string, cfg utils.RetryConfig) (*EFTTransaction, error) {
	if cfg.MaxAttempts <= 0 {
		cfg = utils.DefaultRetryConfig()
	}

	var tx *EFTTransaction
	err := utils.RetryWithBackoff(ctx, utils.RetryConfig{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.InitialDelay,
		MaxDelay:      cfg.MaxDelay,
		BackoffFactor: cfg.BackoffFactor,
		JitterFactor:  cfg.JitterFactor,
		RetryableErrors: func(err error) bool {
			return err == errStillPending
		},
	}, func() error {
		got, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		tx = got
		if !isTerminalEFTStatus(got.Status) {
			return errStillPending
		}
		return nil
	})
	if err != nil {
		if tx != nil && !isTerminalEFTStatus(tx.Status) {
			// Attempts exhausted while still pending; hand back the last
			// observed state alongside the error.
			return tx, errors.APIError("eft transaction still pending after polling", 0)
		}
		return nil, err
	}
	return tx, nil
}
