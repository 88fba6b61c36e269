package oauth

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"paygate-sdk/errors"
)

// Credentials is the token material owned by a Store. Replaced wholesale on
// every successful grant or refresh and cleared on revoke. The struct is
// JSON-serializable so embedding applications can persist it across process
// lifetimes through the accessors or a CredentialsStore.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	MerchantID   string    `json:"merchant_id,omitempty"`
	Scope        []string  `json:"scope,omitempty"`
}

// Clone returns a copy so callers can't mutate the store's state.
func (c *Credentials) Clone() *Credentials {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Scope != nil {
		clone.Scope = append([]string(nil), c.Scope...)
	}
	return &clone
}

// Validation is the result of a local, network-free expiry check.
type Validation struct {
	Valid        bool      `json:"valid"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	NeedsRefresh bool      `json:"needsRefresh,omitempty"`
}

// tokenResponse is the wire shape of the /oauth/token endpoint.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	MerchantID   string `json:"merchant_id,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// ParseTokenPayload decodes the claims segment of a three-part dot-delimited
// token as base64 JSON without verifying the signature. Malformed input
// yields a validation error, never a panic.
func ParseTokenPayload(token string) (map[string]interface{}, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.ValidationError("token must have exactly three dot-delimited segments")
	}

	data, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return nil, &errors.AppError{
			Type:    errors.ErrTypeValidation,
			Message: "token payload is not valid base64",
			Cause:   err,
		}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &errors.AppError{
			Type:    errors.ErrTypeValidation,
			Message: "token payload is not valid JSON",
			Cause:   err,
		}
	}

	return payload, nil
}
