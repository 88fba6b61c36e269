package client

import (
	"context"
	"net/http"
	"time"
)

// CardsService tokenizes and manages stored payment cards. Full card numbers
// go to the gateway once, at tokenization; every response carries only the
// brand and last four digits.
type CardsService struct {
	be *backend
}

type Card struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customerId"`
	Brand       string    `json:"brand"`
	Last4       string    `json:"last4"`
	ExpiryMonth int       `json:"expiryMonth"`
	ExpiryYear  int       `json:"expiryYear"`
	HolderName  string    `json:"holderName,omitempty"`
	IsDefault   bool      `json:"isDefault,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

type CardRequest struct {
	CustomerID  string `json:"customerId"`
	Number      string `json:"number"`
	ExpiryMonth int    `json:"expiryMonth"`
	ExpiryYear  int    `json:"expiryYear"`
	CVV         string `json:"cvv"`
	HolderName  string `json:"holderName,omitempty"`
}

type CardList struct {
	Cards []Card `json:"cards"`
	Total int    `json:"total"`
}

func (s *CardsService) Create(ctx context.Context, req *CardRequest) (*Card, error) {
	var out Card
	if err := s.be.do(ctx, http.MethodPost, "/card-service/cards", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CardsService) Get(ctx context.Context, id string) (*Card, error) {
	var out Card
	if err := s.be.do(ctx, http.MethodGet, "/card-service/cards/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CardsService) Delete(ctx context.Context, id string) error {
	return s.be.do(ctx, http.MethodDelete, "/card-service/cards/"+id, nil, nil, nil)
}

// ListForCustomer returns the stored cards belonging to one customer.
func (s *CardsService) ListForCustomer(ctx context.Context, customerID string) (*CardList, error) {
	var out CardList
	query := map[string]string{"customer_id": customerID}
	if err := s.be.do(ctx, http.MethodGet, "/card-service/cards", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
