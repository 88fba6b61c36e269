package client

import (
	"context"
	"strconv"
	"sync"

	"paygate-sdk/errors"
	"paygate-sdk/logging"
	"paygate-sdk/oauth"
	"paygate-sdk/transport"
)

// backend is the wiring every resource service shares: authenticated
// transport against the gateway plus the token store. UpdateConfig swaps its
// fields atomically so services pick up new wiring on their next call.
type backend struct {
	mu             sync.RWMutex
	transport      *transport.Client
	tokens         *oauth.Store
	gatewayBaseURL string
	logger         logging.Logger
}

func (b *backend) update(tr *transport.Client, tokens *oauth.Store, gatewayBaseURL string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transport = tr
	b.tokens = tokens
	b.gatewayBaseURL = gatewayBaseURL
}

// do runs one authenticated gateway call: obtain a bearer header, execute,
// classify the failure exactly once, decode into out when provided.
func (b *backend) do(ctx context.Context, method, path string, query map[string]string, body, out interface{}) error {
	b.mu.RLock()
	tr := b.transport
	tokens := b.tokens
	baseURL := b.gatewayBaseURL
	b.mu.RUnlock()

	headers, err := tokens.AuthHeader(ctx)
	if err != nil {
		return err
	}

	resp, err := tr.Do(ctx, transport.Request{
		Method:  method,
		BaseURL: baseURL,
		Path:    path,
		Query:   query,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return errors.Classify(err)
	}

	if out != nil {
		if err := resp.Decode(out); err != nil {
			return errors.APIError("failed to decode response body", resp.Status)
		}
	}
	return nil
}

// ListOptions is the shared pagination shape for listing endpoints.
type ListOptions struct {
	Limit  int
	Offset int
}

func (o ListOptions) query() map[string]string {
	q := map[string]string{}
	if o.Limit > 0 {
		q["limit"] = strconv.Itoa(o.Limit)
	}
	if o.Offset > 0 {
		q["offset"] = strconv.Itoa(o.Offset)
	}
	return q
}
