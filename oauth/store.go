package oauth

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"paygate-sdk/circuitbreaker"
	"paygate-sdk/errors"
	"paygate-sdk/logging"
	"paygate-sdk/transport"
)

const (
	tokenPath  = "/oauth/token"
	revokePath = "/oauth/revoke_token"

	// DefaultRefreshBuffer is how long before expiry a token is treated as
	// stale. Grants commonly take a few seconds end to end; five minutes
	// keeps in-flight requests from racing the expiry instant.
	DefaultRefreshBuffer = 5 * time.Minute

	// defaultGrantTimeout bounds the detached refresh call.
	defaultGrantTimeout = 30 * time.Second
)

// Options configures a Store.
//
// Transport must NOT rewrite response keys: the /oauth/token endpoints speak
// standard snake_case OAuth2 and are decoded here as-is.
type Options struct {
	ClientID     string
	ClientSecret string
	// AuthBaseURL is the authorization server, e.g. https://auth.paygate.io.
	AuthBaseURL string
	// RefreshBuffer overrides DefaultRefreshBuffer when positive.
	RefreshBuffer time.Duration
	// GrantTimeout bounds each token endpoint call, including refreshes
	// running on their detached context.
	GrantTimeout time.Duration
	Transport    *transport.Client
	// Storage, when set, persists credentials across restarts under
	// StorageKey (the client ID when empty).
	Storage    CredentialsStore
	StorageKey string
	Breaker    *circuitbreaker.Breaker
	Logger     logging.Logger
}

// Store owns the credentials for one client ID and coordinates every grant,
// refresh, and revocation against the authorization server. All methods are
// safe for concurrent use.
//
// Refreshes are single-flight: when many goroutines discover a stale token
// at once, one refresh call goes over the wire and the rest attach to it and
// share its outcome.
type Store struct {
	clientID      string
	clientSecret  string
	refreshBuffer time.Duration
	grantTimeout  time.Duration
	transport     *transport.Client
	storage       CredentialsStore
	storageKey    string
	breaker       *circuitbreaker.Breaker
	logger        logging.Logger

	// mu guards creds, authBaseURL, and inflight.
	mu          sync.Mutex
	creds       *Credentials
	authBaseURL string
	inflight    *refreshCall
}

// refreshCall is the shared handle for one in-flight refresh. Waiters block
// on done; creds and err are written exactly once before done is closed.
type refreshCall struct {
	done  chan struct{}
	creds *Credentials
	err   error
}

// NewStore builds a Store and, when storage is configured, restores any
// previously persisted credentials. A restore failure is logged and ignored;
// the store simply starts empty.
func NewStore(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	buffer := opts.RefreshBuffer
	if buffer <= 0 {
		buffer = DefaultRefreshBuffer
	}
	grantTimeout := opts.GrantTimeout
	if grantTimeout <= 0 {
		grantTimeout = defaultGrantTimeout
	}
	breaker := opts.Breaker
	if breaker == nil {
		breaker = circuitbreaker.New("oauth-token", circuitbreaker.OAuthConfig, logger)
	}
	storageKey := opts.StorageKey
	if storageKey == "" {
		storageKey = opts.ClientID
	}

	s := &Store{
		clientID:      opts.ClientID,
		clientSecret:  opts.ClientSecret,
		authBaseURL:   strings.TrimSuffix(opts.AuthBaseURL, "/"),
		refreshBuffer: buffer,
		grantTimeout:  grantTimeout,
		transport:     opts.Transport,
		storage:       opts.Storage,
		storageKey:    storageKey,
		breaker:       breaker,
		logger:        logger,
	}

	if s.storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), grantTimeout)
		defer cancel()
		if creds, err := s.storage.Load(ctx, s.storageKey); err != nil {
			s.logger.Warn("failed to restore credentials from storage",
				logging.Field{Key: "storage_key", Value: s.storageKey},
				logging.Field{Key: "error", Value: err.Error()})
		} else if creds != nil {
			s.creds = creds
		}
	}

	return s
}

// SetAuthBaseURL repoints the store at a different authorization server.
// Existing credentials are kept; tokens from one environment are not valid
// in another, so callers switching environments should also clear them.
func (s *Store) SetAuthBaseURL(baseURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authBaseURL = strings.TrimSuffix(baseURL, "/")
}

// Credentials returns a copy of the current credentials, or nil when the
// store holds none.
func (s *Store) Credentials() *Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Clone()
}

// SetCredentials installs externally obtained credentials, replacing any
// existing ones, and persists them when storage is configured.
func (s *Store) SetCredentials(ctx context.Context, creds *Credentials) {
	s.mu.Lock()
	s.creds = creds.Clone()
	s.mu.Unlock()

	if s.storage != nil && creds != nil {
		if err := s.storage.Save(ctx, s.storageKey, creds); err != nil {
			s.logger.Warn("failed to persist credentials",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// ClientCredentialsGrant obtains a token using the client_credentials grant
// and installs it as the store's credentials.
func (s *Store) ClientCredentialsGrant(ctx context.Context) (*Credentials, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	return s.grant(ctx, form)
}

// AuthorizationCodeGrant exchanges an authorization code for credentials.
// The redirect URI must match the one used in the authorization request;
// state is forwarded when non-empty.
func (s *Store) AuthorizationCodeGrant(ctx context.Context, code, redirectURI, state string) (*Credentials, error) {
	if code == "" {
		return nil, errors.ValidationError("authorization code is required")
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	if redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}
	if state != "" {
		form.Set("state", state)
	}
	return s.grant(ctx, form)
}

// RefreshToken exchanges a refresh token for fresh credentials. An empty
// token means "use the stored one". Concurrent calls coalesce onto a single
// network refresh; every waiter receives that refresh's outcome. The network
// call runs on a detached context bounded by the grant timeout, so one
// waiter cancelling its own context never aborts a refresh others share.
func (s *Store) RefreshToken(ctx context.Context, refreshToken string) (*Credentials, error) {
	s.mu.Lock()
	if refreshToken == "" {
		if s.creds == nil || s.creds.RefreshToken == "" {
			s.mu.Unlock()
			return nil, errors.AuthenticationError("no refresh token available")
		}
		refreshToken = s.creds.RefreshToken
	}
	call := s.inflight
	if call == nil {
		call = &refreshCall{done: make(chan struct{})}
		s.inflight = call
		go s.runRefresh(call, refreshToken)
	}
	s.mu.Unlock()

	select {
	case <-call.done:
		return call.creds, call.err
	case <-ctx.Done():
		// The shared refresh keeps running for the other waiters.
		return nil, errors.Classify(ctx.Err())
	}
}

func (s *Store) runRefresh(call *refreshCall, refreshToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.grantTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	creds, err := s.grant(ctx, form)

	s.mu.Lock()
	s.inflight = nil
	s.mu.Unlock()

	call.creds = creds
	call.err = err
	close(call.done)
}

// GetValidToken returns an access token that is good for at least the
// refresh buffer, refreshing first when the stored one is stale. It fails
// with an authentication error when the store holds no credentials or the
// token is stale with no refresh token to trade in.
func (s *Store) GetValidToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.creds == nil || s.creds.AccessToken == "" {
		s.mu.Unlock()
		return "", errors.AuthenticationError("no credentials available; authenticate first")
	}
	if time.Now().Before(s.creds.ExpiresAt.Add(-s.refreshBuffer)) {
		token := s.creds.AccessToken
		s.mu.Unlock()
		return token, nil
	}
	hasRefresh := s.creds.RefreshToken != ""
	s.mu.Unlock()

	if !hasRefresh {
		return "", errors.AuthenticationError("access token expired and no refresh token available")
	}

	creds, err := s.RefreshToken(ctx, "")
	if err != nil {
		return "", err
	}
	return creds.AccessToken, nil
}

// AuthHeader returns the Authorization header for an authenticated request,
// obtaining or refreshing the token as needed.
func (s *Store) AuthHeader(ctx context.Context) (map[string]string, error) {
	token, err := s.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

// Validate reports the expiry state of the stored credentials without any
// network traffic. It never returns an error; absence of credentials is just
// an invalid result with a reason.
func (s *Store) Validate() Validation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds == nil || s.creds.AccessToken == "" {
		return Validation{Valid: false, Reason: "no credentials"}
	}

	now := time.Now()
	hasRefresh := s.creds.RefreshToken != ""

	if !now.Before(s.creds.ExpiresAt) {
		return Validation{
			Valid:        false,
			ExpiresAt:    s.creds.ExpiresAt,
			Reason:       "token expired",
			NeedsRefresh: hasRefresh,
		}
	}
	if !now.Before(s.creds.ExpiresAt.Add(-s.refreshBuffer)) {
		return Validation{
			Valid:        false,
			ExpiresAt:    s.creds.ExpiresAt,
			Reason:       "token expiring soon",
			NeedsRefresh: hasRefresh,
		}
	}
	return Validation{Valid: true, ExpiresAt: s.creds.ExpiresAt}
}

// Revoke tells the authorization server to revoke the current access token,
// then clears local credentials and storage. Remote failures are logged and
// swallowed; the local state is cleared no matter what, so Revoke always
// leaves the store unauthenticated.
func (s *Store) Revoke(ctx context.Context) error {
	s.mu.Lock()
	creds := s.creds
	authBase := s.authBaseURL
	s.mu.Unlock()

	if creds != nil && creds.AccessToken != "" {
		_, err := s.transport.Do(ctx, transport.Request{
			Method:  http.MethodDelete,
			BaseURL: authBase,
			Path:    revokePath,
			Headers: map[string]string{"Authorization": "Bearer " + creds.AccessToken},
		})
		if err != nil {
			s.logger.Warn("remote token revocation failed, clearing local credentials anyway",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}

	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()

	if s.storage != nil {
		if err := s.storage.Delete(ctx, s.storageKey); err != nil {
			s.logger.Warn("failed to delete credentials from storage",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
	return nil
}

// grant performs one call against the token endpoint, authenticating with
// HTTP Basic client credentials, and installs the resulting credentials.
func (s *Store) grant(ctx context.Context, form url.Values) (*Credentials, error) {
	if s.clientID == "" || s.clientSecret == "" {
		return nil, errors.ConfigError("client credentials are not configured")
	}

	s.mu.Lock()
	authBase := s.authBaseURL
	s.mu.Unlock()

	basic := base64.StdEncoding.EncodeToString([]byte(s.clientID + ":" + s.clientSecret))

	var resp *transport.Response
	err := s.breaker.Execute(ctx, func() error {
		var doErr error
		resp, doErr = s.transport.Do(ctx, transport.Request{
			Method:  http.MethodPost,
			BaseURL: authBase,
			Path:    tokenPath,
			Form:    form,
			Headers: map[string]string{"Authorization": "Basic " + basic},
		})
		return doErr
	})
	if err != nil {
		return nil, errors.Classify(err)
	}

	var tokenResp tokenResponse
	if err := resp.Decode(&tokenResp); err != nil {
		return nil, errors.NetworkError("failed to decode token response", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, errors.AuthenticationError("token response contained no access token")
	}

	creds := &Credentials{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		MerchantID:   tokenResp.MerchantID,
	}
	if tokenResp.ExpiresIn > 0 {
		creds.ExpiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}
	if tokenResp.Scope != "" {
		creds.Scope = strings.Fields(tokenResp.Scope)
	}

	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()

	s.logger.Debug("obtained access token",
		logging.Field{Key: "grant_type", Value: form.Get("grant_type")},
		logging.Field{Key: "expires_at", Value: creds.ExpiresAt})

	if s.storage != nil {
		if err := s.storage.Save(ctx, s.storageKey, creds); err != nil {
			s.logger.Warn("failed to persist credentials",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}

	return creds.Clone(), nil
}
