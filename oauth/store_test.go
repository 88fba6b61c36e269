package oauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"paygate-sdk/errors"
	"paygate-sdk/transport"
)

func newTestStore(t *testing.T, serverURL string) *Store {
	t.Helper()
	return NewStore(Options{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		AuthBaseURL:  serverURL,
		Transport:    transport.New(transport.Options{Timeout: 5 * time.Second}),
	})
}

func tokenHandler(t *testing.T, calls *int32, response tokenResponse) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/oauth/token" {
			t.Errorf("expected /oauth/token, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("expected form content type, got %q", ct)
		}
		wantBasic := "Basic " + base64.StdEncoding.EncodeToString([]byte("test-client:test-secret"))
		if got := r.Header.Get("Authorization"); got != wantBasic {
			t.Errorf("expected basic auth header %q, got %q", wantBasic, got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

func TestClientCredentialsGrant(t *testing.T) {
	var calls int32
	var gotGrantType string
	inner := tokenHandler(t, &calls, tokenResponse{
		AccessToken:  "access-1",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		RefreshToken: "refresh-1",
		MerchantID:   "merchant-42",
		Scope:        "payments:read payments:write",
	})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotGrantType = r.PostFormValue("grant_type")
		inner(w, r)
	}))
	defer server.Close()

	store := newTestStore(t, server.URL)
	creds, err := store.ClientCredentialsGrant(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotGrantType != "client_credentials" {
		t.Errorf("expected client_credentials grant, got %q", gotGrantType)
	}
	if creds.AccessToken != "access-1" {
		t.Errorf("expected access token access-1, got %q", creds.AccessToken)
	}
	if creds.RefreshToken != "refresh-1" {
		t.Errorf("expected refresh token refresh-1, got %q", creds.RefreshToken)
	}
	if creds.MerchantID != "merchant-42" {
		t.Errorf("expected merchant merchant-42, got %q", creds.MerchantID)
	}
	if len(creds.Scope) != 2 || creds.Scope[0] != "payments:read" {
		t.Errorf("expected scope split on spaces, got %v", creds.Scope)
	}
	until := time.Until(creds.ExpiresAt)
	if until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("expected expiry about an hour out, got %v", until)
	}

	// The store now holds the credentials.
	if stored := store.Credentials(); stored == nil || stored.AccessToken != "access-1" {
		t.Errorf("expected stored credentials, got %+v", stored)
	}
}

func TestAuthorizationCodeGrant(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = map[string]string{
			"grant_type":   r.PostFormValue("grant_type"),
			"code":         r.PostFormValue("code"),
			"redirect_uri": r.PostFormValue("redirect_uri"),
			"state":        r.PostFormValue("state"),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "access-2", ExpiresIn: 3600})
	}))
	defer server.Close()

	store := newTestStore(t, server.URL)
	_, err := store.AuthorizationCodeGrant(context.Background(), "auth-code", "https://app.example.com/callback", "xyz")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotForm["grant_type"] != "authorization_code" {
		t.Errorf("expected authorization_code grant, got %q", gotForm["grant_type"])
	}
	if gotForm["code"] != "auth-code" {
		t.Errorf("expected code auth-code, got %q", gotForm["code"])
	}
	if gotForm["redirect_uri"] != "https://app.example.com/callback" {
		t.Errorf("unexpected redirect_uri %q", gotForm["redirect_uri"])
	}
	if gotForm["state"] != "xyz" {
		t.Errorf("expected state xyz, got %q", gotForm["state"])
	}
}

func TestAuthorizationCodeGrant_EmptyCode(t *testing.T) {
	store := newTestStore(t, "http://unused")
	_, err := store.AuthorizationCodeGrant(context.Background(), "", "", "")
	if !errors.IsType(err, errors.ErrTypeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGrant_ServerErrorIsClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "INVALID_CREDENTIALS",
			"message": "client authentication failed",
		})
	}))
	defer server.Close()

	store := newTestStore(t, server.URL)
	_, err := store.ClientCredentialsGrant(context.Background())
	if !errors.IsType(err, errors.ErrTypeAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if store.Credentials() != nil {
		t.Error("expected no credentials after failed grant")
	}
}

func TestGrant_MissingAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token_type": "Bearer"})
	}))
	defer server.Close()

	store := newTestStore(t, server.URL)
	_, err := store.ClientCredentialsGrant(context.Background())
	if !errors.IsType(err, errors.ErrTypeAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestGetValidToken_FreshTokenNoNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(tokenHandler(t, &calls, tokenResponse{AccessToken: "new", ExpiresIn: 3600}))
	defer server.Close()

	store := newTestStore(t, server.URL)
	store.SetCredentials(context.Background(), &Credentials{
		AccessToken: "fresh",
		ExpiresAt:   time.Now().Add(time.Hour),
	})

	token, err := store.GetValidToken(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token != "fresh" {
		t.Errorf("expected cached token, got %q", token)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("expected no token requests, got %d", calls)
	}
}

func TestGetValidToken_RefreshesStaleToken(t *testing.T) {
	var calls int32
	var gotRefreshToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		r.ParseForm()
		if gt := r.PostFormValue("grant_type"); gt != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %q", gt)
		}
		gotRefreshToken = r.PostFormValue("refresh_token")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "renewed", ExpiresIn: 3600, RefreshToken: "refresh-2"})
	}))
	defer server.Close()

	store := newTestStore(t, server.URL)
	store.SetCredentials(context.Background(), &Credentials{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		// Inside the 5-minute buffer, so stale.
		ExpiresAt: time.Now().Add(time.Minute),
	})

	token, err := store.GetValidToken(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token != "renewed" {
		t.Errorf("expected renewed token, got %q", token)
	}
	if gotRefreshToken != "refresh-1" {
		t.Errorf("expected stored refresh token to be sent, got %q", gotRefreshToken)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected one token request, got %d", calls)
	}
}

func TestGetValidToken_NoCredentials(t *testing.T) {
	store := newTestStore(t, "http://unused")
	_, err := store.GetValidToken(context.Background())
	if !errors.IsType(err, errors.ErrTypeAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestGetValidToken_StaleWithoutRefreshToken(t *testing.T) {
	store := newTestStore(t, "http://unused")
	store.SetCredentials(context.Background(), &Credentials{
		AccessToken: "stale",
		ExpiresAt:   time.Now().Add(-time.Minute),
	})
	_, err := store.GetValidToken(context.Background())
	if !errors.IsType(err, errors.ErrTypeAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestRefreshToken_NoTokenAvailable(t *testing.T) {
	store := newTestStore(t, "http://unused")
	_, err := store.RefreshToken(context.Background(), "")
	if !errors.IsType(err, errors.ErrTypeAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestRefreshToken_SingleFlight(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		// Hold the response long enough for every goroutine to attach.
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "shared", ExpiresIn: 3600, RefreshToken: "refresh-2"})
	}))
	defer server.Close()

	store := newTestStore(t, server.URL)
	store.SetCredentials(context.Background(), &Credentials{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Minute),
	})

	const workers = 20
	tokens := make([]string, workers)
	errs := make([]error, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			tokens[i], errs[i] = store.GetValidToken(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: unexpected error %v", i, errs[i])
		}
		if tokens[i] != "shared" {
			t.Errorf("worker %d: expected shared token, got %q", i, tokens[i])
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly one refresh request, got %d", got)
	}
}

func TestRefreshToken_WaiterCancelDoesNotAbortRefresh(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(150 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "survived", ExpiresIn: 3600})
	}))
	defer server.Close()

	store := newTestStore(t, server.URL)
	store.SetCredentials(context.Background(), &Credentials{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Minute),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := store.RefreshToken(ctx, "")
	if err == nil {
		t.Fatal("expected error from cancelled waiter")
	}

	// The refresh keeps running on its detached context and lands.
	time.Sleep(300 * time.Millisecond)
	token, err := store.GetValidToken(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token != "survived" {
		t.Errorf("expected refreshed token despite waiter cancel, got %q", token)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected one refresh request, got %d", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		creds        *Credentials
		valid        bool
		needsRefresh bool
		reason       string
	}{
		{
			name:   "no credentials",
			creds:  nil,
			valid:  false,
			reason: "no credentials",
		},
		{
			name: "valid for an hour",
			creds: &Credentials{
				AccessToken: "ok",
				ExpiresAt:   time.Now().Add(time.Hour),
			},
			valid: true,
		},
		{
			name: "expiring inside buffer with refresh token",
			creds: &Credentials{
				AccessToken:  "soon",
				RefreshToken: "r",
				ExpiresAt:    time.Now().Add(time.Minute),
			},
			valid:        false,
			needsRefresh: true,
			reason:       "token expiring soon",
		},
		{
			name: "expiring inside buffer without refresh token",
			creds: &Credentials{
				AccessToken: "soon",
				ExpiresAt:   time.Now().Add(time.Minute),
			},
			valid:        false,
			needsRefresh: false,
			reason:       "token expiring soon",
		},
		{
			name: "already expired",
			creds: &Credentials{
				AccessToken:  "old",
				RefreshToken: "r",
				ExpiresAt:    time.Now().Add(-time.Hour),
			},
			valid:        false,
			needsRefresh: true,
			reason:       "token expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, "http://unused")
			if tt.creds != nil {
				store.SetCredentials(context.Background(), tt.creds)
			}
			result := store.Validate()
			if result.Valid != tt.valid {
				t.Errorf("expected valid=%v, got %v", tt.valid, result.Valid)
			}
			if result.NeedsRefresh != tt.needsRefresh {
				t.Errorf("expected needsRefresh=%v, got %v", tt.needsRefresh, result.NeedsRefresh)
			}
			if result.Reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, result.Reason)
			}
		})
	}
}

func TestRevoke(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	store := newTestStore(t, server.URL)
	store.SetCredentials(context.Background(), &Credentials{
		AccessToken: "revoke-me",
		ExpiresAt:   time.Now().Add(time.Hour),
	})

	if err := store.Revoke(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("expected DELETE, got %s", gotMethod)
	}
	if gotPath != "/oauth/revoke_token" {
		t.Errorf("expected /oauth/revoke_token, got %s", gotPath)
	}
	if gotAuth != "Bearer revoke-me" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if store.Credentials() != nil {
		t.Error("expected credentials cleared after revoke")
	}
}

func TestRevoke_RemoteFailureStillClearsLocal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := newTestStore(t, server.URL)
	store.SetCredentials(context.Background(), &Credentials{
		AccessToken: "doomed",
		ExpiresAt:   time.Now().Add(time.Hour),
	})

	if err := store.Revoke(context.Background()); err != nil {
		t.Fatalf("expected remote failure to be swallowed, got %v", err)
	}
	if store.Credentials() != nil {
		t.Error("expected credentials cleared despite remote failure")
	}
}

func TestRevoke_NoCredentials(t *testing.T) {
	store := newTestStore(t, "http://unused")
	if err := store.Revoke(context.Background()); err != nil {
		t.Fatalf("expected no error revoking empty store, got %v", err)
	}
}

func TestStorePersistsAndRestores(t *testing.T) {
	server := httptest.NewServer(tokenHandler(t, nil, tokenResponse{AccessToken: "persisted", ExpiresIn: 3600}))
	defer server.Close()

	storage := NewMemoryCredentialsStore()
	first := NewStore(Options{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		AuthBaseURL:  server.URL,
		Transport:    transport.New(transport.Options{Timeout: 5 * time.Second}),
		Storage:      storage,
	})
	if _, err := first.ClientCredentialsGrant(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// A second store with the same storage sees the token without a grant.
	second := NewStore(Options{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		AuthBaseURL:  server.URL,
		Transport:    transport.New(transport.Options{Timeout: 5 * time.Second}),
		Storage:      storage,
	})
	token, err := second.GetValidToken(context.Background())
	if err != nil {
		t.Fatalf("expected restored credentials, got %v", err)
	}
	if token != "persisted" {
		t.Errorf("expected persisted token, got %q", token)
	}
}

func TestCredentials_ReturnsCopy(t *testing.T) {
	store := newTestStore(t, "http://unused")
	store.SetCredentials(context.Background(), &Credentials{
		AccessToken: "original",
		Scope:       []string{"a"},
		ExpiresAt:   time.Now().Add(time.Hour),
	})

	copy1 := store.Credentials()
	copy1.AccessToken = "mutated"
	copy1.Scope[0] = "b"

	copy2 := store.Credentials()
	if copy2.AccessToken != "original" {
		t.Errorf("expected store unaffected by mutation, got %q", copy2.AccessToken)
	}
	if copy2.Scope[0] != "a" {
		t.Errorf("expected scope unaffected by mutation, got %v", copy2.Scope)
	}
}

func TestParseTokenPayload(t *testing.T) {
	payload := map[string]interface{}{"merchant_id": "m-1", "exp": float64(1900000000)}
	payloadJSON, _ := json.Marshal(payload)
	token := fmt.Sprintf("%s.%s.%s",
		base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256"}`)),
		base64.RawURLEncoding.EncodeToString(payloadJSON),
		base64.RawURLEncoding.EncodeToString([]byte("sig")))

	claims, err := ParseTokenPayload(token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if claims["merchant_id"] != "m-1" {
		t.Errorf("expected merchant_id claim, got %v", claims["merchant_id"])
	}
	if claims["exp"] != float64(1900000000) {
		t.Errorf("expected exp claim, got %v", claims["exp"])
	}
}

func TestParseTokenPayload_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"two segments", "aaa.bbb"},
		{"four segments", "a.b.c.d"},
		{"payload not base64", "aaa.!!!.ccc"},
		{"payload not JSON", "aaa." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".ccc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTokenPayload(tt.token)
			if !errors.IsType(err, errors.ErrTypeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}
