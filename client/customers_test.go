package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomers_Search(t *testing.T) {
	g := newMockGateway(t)
	g.mux.HandleFunc("/customer-service/customers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"customers": []map[string]interface{}{
				{"id": "c1", "first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"},
				{"id": "c2", "first_name": "Grace", "last_name": "Hopper", "email": "grace@navy.mil"},
				{"id": "c3", "first_name": "Alan", "last_name": "Turing", "email": "alan@bletchley.uk", "company": "GCHQ"},
			},
			"total": 3,
		})
	})

	c := newTestClient(t, g)
	require.NoError(t, c.Initialize(context.Background()))

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"match on first name case-insensitive", "ADA", []string{"c1"}},
		{"match on email domain", "navy", []string{"c2"}},
		{"match on company", "gchq", []string{"c3"}},
		{"no match", "nobody", nil},
		{"empty query returns everyone", "", []string{"c1", "c2", "c3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Customers.Search(context.Background(), tt.query)
			require.NoError(t, err)

			var ids []string
			for _, cust := range got {
				ids = append(ids, cust.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestCustomers_Delete(t *testing.T) {
	g := newMockGateway(t)

	var gotMethod string
	g.mux.HandleFunc("/customer-service/customers/c1", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, g)
	require.NoError(t, c.Initialize(context.Background()))

	require.NoError(t, c.Customers.Delete(context.Background(), "c1"))
	assert.Equal(t, http.MethodDelete, gotMethod)
}
