package client

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// CustomersService manages customer records in the gateway's customer vault.
type CustomersService struct {
	be *backend
}

type Customer struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type CustomerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
}

type CustomerList struct {
	Customers []Customer `json:"customers"`
	Total     int        `json:"total"`
}

func (s *CustomersService) Create(ctx context.Context, req *CustomerRequest) (*Customer, error) {
	var out Customer
	if err := s.be.do(ctx, http.MethodPost, "/customer-service/customers", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CustomersService) Get(ctx context.Context, id string) (*Customer, error) {
	var out Customer
	if err := s.be.do(ctx, http.MethodGet, "/customer-service/customers/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CustomersService) Update(ctx context.Context, id string, req *CustomerRequest) (*Customer, error) {
	var out Customer
	if err := s.be.do(ctx, http.MethodPut, "/customer-service/customers/"+id, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CustomersService) Delete(ctx context.Context, id string) error {
	return s.be.do(ctx, http.MethodDelete, "/customer-service/customers/"+id, nil, nil, nil)
}

func (s *CustomersService) List(ctx context.Context, opts ListOptions) (*CustomerList, error) {
	var out CustomerList
	if err := s.be.do(ctx, http.MethodGet, "/customer-service/customers", opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search lists customers and filters them locally by a case-insensitive
// substring match on name, email, and company. The gateway has no search
// endpoint; this is a convenience over List, not a server query.
func (s *CustomersService) Search(ctx context.Context, query string) ([]Customer, error) {
	list, err := s.List(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list.Customers, nil
	}

	var matches []Customer
	for _, customer := range list.Customers {
		haystack := strings.ToLower(strings.Join([]string{
			customer.FirstName,
			customer.LastName,
			customer.Email,
			customer.Company,
		}, " "))
		if strings.Contains(haystack, query) {
			matches = append(matches, customer)
		}
	}
	return matches, nil
}
