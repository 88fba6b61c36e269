package client

import (
	"context"
	"net/http"
	"time"
)

// InvoicesService creates and manages invoices. Totals math lives client-side
// in CalculateTotals so callers can preview amounts before creating anything.
type InvoicesService struct {
	be *backend
}

type InvoiceLine struct {
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

type Invoice struct {
	ID         string        `json:"id"`
	CustomerID string        `json:"customerId"`
	Lines      []InvoiceLine `json:"lines"`
	TaxRate    float64       `json:"taxRate,omitempty"`
	Discount   float64       `json:"discount,omitempty"`
	Shipping   float64       `json:"shipping,omitempty"`
	Subtotal   float64       `json:"subtotal"`
	Tax        float64       `json:"tax"`
	Total      float64       `json:"total"`
	Status     string        `json:"status"`
	DueDate    time.Time     `json:"dueDate,omitempty"`
	CreatedAt  time.Time     `json:"createdAt,omitempty"`
}

type InvoiceRequest struct {
	CustomerID string        `json:"customerId"`
	Lines      []InvoiceLine `json:"lines"`
	TaxRate    float64       `json:"taxRate,omitempty"`
	Discount   float64       `json:"discount,omitempty"`
	Shipping   float64       `json:"shipping,omitempty"`
	DueDate    *time.Time    `json:"dueDate,omitempty"`
}

type InvoiceList struct {
	Invoices []Invoice `json:"invoices"`
	Total    int       `json:"total"`
}

// InvoiceTotals is the result of the local totals calculation.
type InvoiceTotals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// CalculateTotals computes invoice amounts without touching the network:
// subtotal is the sum of quantity times unit price over the lines, tax is
// the subtotal at taxRate percent, and the total is subtotal plus tax minus
// discount plus shipping.
func (s *InvoicesService) CalculateTotals(lines []InvoiceLine, taxRate, discount, shipping float64) InvoiceTotals {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.Quantity * line.UnitPrice
	}
	tax := subtotal * taxRate / 100
	return InvoiceTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Shipping: shipping,
		Total:    subtotal + tax - discount + shipping,
	}
}

func (s *InvoicesService) Create(ctx context.Context, req *InvoiceRequest) (*Invoice, error) {
	var out Invoice
	if err := s.be.do(ctx, http.MethodPost, "/invoice-service/invoices", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InvoicesService) Get(ctx context.Context, id string) (*Invoice, error) {
	var out Invoice
	if err := s.be.do(ctx, http.MethodGet, "/invoice-service/invoices/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InvoicesService) Delete(ctx context.Context, id string) error {
	return s.be.do(ctx, http.MethodDelete, "/invoice-service/invoices/"+id, nil, nil, nil)
}

func (s *InvoicesService) List(ctx context.Context, opts ListOptions) (*InvoiceList, error) {
	var out InvoiceList
	if err := s.be.do(ctx, http.MethodGet, "/invoice-service/invoices", opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Send emails the invoice to the customer through the gateway.
func (s *InvoicesService) Send(ctx context.Context, id string) (*Invoice, error) {
	var out Invoice
	if err := s.be.do(ctx, http.MethodPost, "/invoice-service/invoices/"+id+"/send", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
