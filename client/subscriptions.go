package client

import (
	"context"
	"net/http"
	"time"
)

// SubscriptionsService manages recurring billing agreements that pair a
// customer's stored card with a plan.
type SubscriptionsService struct {
	be *backend
}

type Subscription struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customerId"`
	PlanID      string    `json:"planId"`
	CardID      string    `json:"cardId"`
	Status      string    `json:"status"`
	StartDate   time.Time `json:"startDate,omitempty"`
	NextBilling time.Time `json:"nextBilling,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

type SubscriptionRequest struct {
	CustomerID string     `json:"customerId"`
	PlanID     string     `json:"planId"`
	CardID     string     `json:"cardId"`
	StartDate  *time.Time `json:"startDate,omitempty"`
}

type SubscriptionList struct {
	Subscriptions []Subscription `json:"subscriptions"`
	Total         int            `json:"total"`
}

func (s *SubscriptionsService) Create(ctx context.Context, req *SubscriptionRequest) (*Subscription, error) {
	var out Subscription
	if err := s.be.do(ctx, http.MethodPost, "/subscription-service/subscriptions", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SubscriptionsService) Get(ctx context.Context, id string) (*Subscription, error) {
	var out Subscription
	if err := s.be.do(ctx, http.MethodGet, "/subscription-service/subscriptions/"+id, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update changes the card or plan of an active subscription.
func (s *SubscriptionsService) Update(ctx context.Context, id string, req *SubscriptionRequest) (*Subscription, error) {
	var out Subscription
	if err := s.be.do(ctx, http.MethodPut, "/subscription-service/subscriptions/"+id, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel stops future billing. The subscription record survives with a
// cancelled status for reporting.
func (s *SubscriptionsService) Cancel(ctx context.Context, id string) (*Subscription, error) {
	var out Subscription
	if err := s.be.do(ctx, http.MethodPost, "/subscription-service/subscriptions/"+id+"/cancel", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SubscriptionsService) List(ctx context.Context, opts ListOptions) (*SubscriptionList, error) {
	var out SubscriptionList
	if err := s.be.do(ctx, http.MethodGet, "/subscription-service/subscriptions", opts.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
