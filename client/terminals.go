package client

import (
	"context"
	"net/http"
	"time"
)

// TerminalsService reports on physical payment terminals registered to the
// merchant and pushes payment requests to them.
type TerminalsService struct {
	be *backend
}

type Terminal struct {
	ID           string    `json:"id"`
	Label        string    `json:"label,omitempty"`
	SerialNumber string    `json:"serialNumber,omitempty"`
	Status       string    `json:"status"`
	LastSeenAt   time.Time `json:"lastSeenAt,omitempty"`
}

type TerminalList struct {
	Terminals []Terminal `json:"terminals"`
	Total     int        `json:"total"`
}

type TerminalPaymentRequest struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description,omitempty"`
}

func (s *TerminalsService) Get(ctx context.Context, id string) (*Terminal, error) {
	var out Terminal
	if err := s.be.do(ctx, http.MethodGet, "/terminal-service/terminals/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TerminalsService) List(ctx context.Context, opts ListOptions) (*TerminalList, error) {
	var out TerminalList
	if err := s.be.do(ctx, http.MethodGet, "/terminal-service/terminals", opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePayment pushes a payment prompt to a terminal. The resulting
// transaction completes asynchronously once the cardholder taps.
func (s *TerminalsService) CreatePayment(ctx context.Context, terminalID string, req *TerminalPaymentRequest) (*Transaction, error) {
	var out Transaction
	if err := s.be.do(ctx, http.MethodPost, "/terminal-service/terminals/"+terminalID+"/payments", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
