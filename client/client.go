// Package client is the public SDK surface: a Client wired from config plus
// one thin service per gateway resource. Services never cache responses and
// never classify errors twice; every call is authenticate, execute, classify.
package client

import (
	"context"
	"sync"

	"paygate-sdk/config"
	"paygate-sdk/errors"
	"paygate-sdk/logging"
	"paygate-sdk/oauth"
	"paygate-sdk/transport"
)

// Options configures a Client beyond the plain config struct.
type Options struct {
	Config *config.Config
	// Logger overrides the default zap-backed logger.
	Logger logging.Logger
	// CredentialsStorage persists tokens across restarts (memory or Redis).
	CredentialsStorage oauth.CredentialsStore
}

// Client is the SDK entry point. Construction validates the configuration
// and wires the token store, transports, and resource services; no network
// traffic happens until Initialize or the first authenticated call.
type Client struct {
	mu      sync.RWMutex
	cfg     *config.Config
	env     config.Environment
	logger  logging.Logger
	storage oauth.CredentialsStore
	tokens  *oauth.Store
	be      *backend

	Customers     *CustomersService
	Cards         *CardsService
	Subscriptions *SubscriptionsService
	Plans         *PlansService
	Transactions  *TransactionsService
	Invoices      *InvoicesService
	Terminals     *TerminalsService
	EFT           *EFTService
}

// New builds a Client from a validated configuration.
func New(cfg *config.Config) (*Client, error) {
	return NewWithOptions(Options{Config: cfg})
}

// NewWithOptions builds a Client with a custom logger or credential storage.
func NewWithOptions(opts Options) (*Client, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.ConfigError("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	logger := opts.Logger
	if logger == nil {
		zapLogger, err := logging.NewZapLogger(logging.LogConfig{
			Level:  logging.ParseLevel(cfg.LogLevel),
			Prefix: "paygate",
		})
		if err != nil {
			logger = logging.NewNopLogger()
		} else {
			logger = zapLogger
		}
	}

	env := cfg.Environment()

	// The token endpoints speak standard snake_case OAuth2, so the auth
	// transport never rewrites keys regardless of the transform settings.
	authTransport := transport.New(transport.Options{
		Timeout: cfg.EffectiveTimeout(),
		Logger:  logger,
	})
	gatewayTransport := transport.New(transport.Options{
		Timeout:           cfg.EffectiveTimeout(),
		TransformRequest:  cfg.TransformRequest(),
		TransformResponse: cfg.TransformResponse(),
		Logger:            logger,
	})

	tokens := oauth.NewStore(oauth.Options{
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		AuthBaseURL:   env.AuthBaseURL,
		RefreshBuffer: cfg.EffectiveRefreshBuffer(),
		GrantTimeout:  cfg.EffectiveTimeout(),
		Transport:     authTransport,
		Storage:       opts.CredentialsStorage,
		Logger:        logger,
	})

	be := &backend{
		transport:      gatewayTransport,
		tokens:         tokens,
		gatewayBaseURL: env.GatewayBaseURL,
		logger:         logger,
	}

	c := &Client{
		cfg:     cfg,
		env:     env,
		logger:  logger,
		storage: opts.CredentialsStorage,
		tokens:  tokens,
		be:      be,
	}
	c.Customers = &CustomersService{be: be}
	c.Cards = &CardsService{be: be}
	c.Subscriptions = &SubscriptionsService{be: be}
	c.Plans = &PlansService{be: be}
	c.Transactions = &TransactionsService{be: be}
	c.Invoices = &InvoicesService{be: be}
	c.Terminals = &TerminalsService{be: be}
	c.EFT = &EFTService{be: be}
	return c, nil
}

// Initialize authenticates with the client_credentials grant. Applications
// that exchange an authorization code instead can skip it and call
// ExchangeCode.
func (c *Client) Initialize(ctx context.Context) error {
	_, err := c.tokenStore().ClientCredentialsGrant(ctx)
	return err
}

// ExchangeCode trades an authorization code for credentials.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI, state string) (*oauth.Credentials, error) {
	return c.tokenStore().AuthorizationCodeGrant(ctx, code, redirectURI, state)
}

// Refresh forces a token refresh using the stored refresh token.
func (c *Client) Refresh(ctx context.Context) (*oauth.Credentials, error) {
	return c.tokenStore().RefreshToken(ctx, "")
}

// Revoke revokes the current token remotely and clears local credentials.
func (c *Client) Revoke(ctx context.Context) error {
	return c.tokenStore().Revoke(ctx)
}

// AuthStatus reports the current token state without network traffic.
func (c *Client) AuthStatus() oauth.Validation {
	return c.tokenStore().Validate()
}

// SetCredentials installs externally obtained credentials.
func (c *Client) SetCredentials(ctx context.Context, creds *oauth.Credentials) {
	c.tokenStore().SetCredentials(ctx, creds)
}

// Credentials returns a copy of the current credentials, or nil.
func (c *Client) Credentials() *oauth.Credentials {
	return c.tokenStore().Credentials()
}

// Config returns a copy of the active configuration.
func (c *Client) Config() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Clone()
}

// Environment returns the resolved environment (name and base URLs).
func (c *Client) Environment() config.Environment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.env
}

// UpdateConfig replaces the whole configuration at once and re-derives the
// environment and transports. Credentials survive the swap; in-flight calls
// finish against the wiring they started with, and later calls observe only
// the complete new configuration, never a partial one.
func (c *Client) UpdateConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.ConfigError("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg = cfg.Clone()
	env := cfg.Environment()

	authTransport := transport.New(transport.Options{
		Timeout: cfg.EffectiveTimeout(),
		Logger:  c.logger,
	})
	gatewayTransport := transport.New(transport.Options{
		Timeout:           cfg.EffectiveTimeout(),
		TransformRequest:  cfg.TransformRequest(),
		TransformResponse: cfg.TransformResponse(),
		Logger:            c.logger,
	})

	c.mu.Lock()
	old := c.tokens
	tokens := oauth.NewStore(oauth.Options{
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		AuthBaseURL:   env.AuthBaseURL,
		RefreshBuffer: cfg.EffectiveRefreshBuffer(),
		GrantTimeout:  cfg.EffectiveTimeout(),
		Transport:     authTransport,
		Storage:       c.storage,
		Logger:        c.logger,
	})
	if creds := old.Credentials(); creds != nil {
		tokens.SetCredentials(context.Background(), creds)
	}
	c.cfg = cfg
	c.env = env
	c.tokens = tokens
	c.mu.Unlock()

	c.be.update(gatewayTransport, tokens, env.GatewayBaseURL)
	return nil
}

func (c *Client) tokenStore() *oauth.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}
