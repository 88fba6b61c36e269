package client

import (
	"context"
	"net/http"
	"time"
)

// PlansService manages the billing plans subscriptions are created against.
type PlansService struct {
	be *backend
}

const (
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

type Plan struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Frequency     string    `json:"frequency"`
	IntervalCount int       `json:"intervalCount,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

type PlanRequest struct {
	Name          string  `json:"name"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Frequency     string  `json:"frequency"`
	IntervalCount int     `json:"intervalCount,omitempty"`
}

type PlanList struct {
	Plans []Plan `json:"plans"`
	Total int    `json:"total"`
}

func (s *PlansService) Create(ctx context.Context, req *PlanRequest) (*Plan, error) {
	var out Plan
	if err := s.be.do(ctx, http.MethodPost, "/plan-service/plans", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMonthly creates a plan that bills every month.
func (s *PlansService) CreateMonthly(ctx context.Context, name string, amount float64, currency string) (*Plan, error) {
	return s.Create(ctx, &PlanRequest{
		Name:      name,
		Amount:    amount,
		Currency:  currency,
		Frequency: FrequencyMonthly,
	})
}

// CreateYearly creates a plan that bills every year.
func (s *PlansService) CreateYearly(ctx context.Context, name string, amount float64, currency string) (*Plan, error) {
	return s.Create(ctx, &PlanRequest{
		Name:      name,
		Amount:    amount,
		Currency:  currency,
		Frequency: FrequencyYearly,
	})
}

func (s *PlansService) Get(ctx context.Context, id string) (*Plan, error) {
	var out Plan
	if err := s.be.do(ctx, http.MethodGet, "/plan-service/plans/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PlansService) Update(ctx context.Context, id string, req *PlanRequest) (*Plan, error) {
	var out Plan
	if err := s.be.do(ctx, http.MethodPut, "/plan-service/plans/"+id, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PlansService) Delete(ctx context.Context, id string) error {
	return s.be.do(ctx, http.MethodDelete, "/plan-service/plans/"+id, nil, nil, nil)
}

func (s *PlansService) List(ctx context.Context, opts ListOptions) (*PlanList, error) {
	var out PlanList
	if err := s.be.do(ctx, http.MethodGet, "/plan-service/plans", opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
