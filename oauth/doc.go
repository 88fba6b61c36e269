// Package oauth manages the gateway token lifecycle: grants, refresh,
// validation, and revocation.
//
// # Overview
//
// A Store holds the credentials for one client ID. It obtains tokens with
// the client_credentials and authorization_code grants, keeps them fresh
// with the refresh_token grant, and revokes them on demand. Every method is
// safe for concurrent use.
//
// # Usage
//
//	store := oauth.NewStore(oauth.Options{
//	    ClientID:     "your-client-id",
//	    ClientSecret: "your-client-secret",
//	    AuthBaseURL:  "https://auth.paygate.io",
//	    Transport:    transport.New(transport.Options{}),
//	})
//
//	if _, err := store.ClientCredentialsGrant(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	headers, err := store.AuthHeader(ctx) // {"Authorization": "Bearer ..."}
//
// # Refresh semantics
//
// A token is treated as stale once it is within the refresh buffer (five
// minutes by default) of its expiry. GetValidToken and AuthHeader refresh
// stale tokens transparently when a refresh token is held.
//
// Refreshes are single-flight. When many goroutines hit a stale token at
// the same moment, exactly one refresh request reaches the authorization
// server; the rest block on the shared in-flight call and receive the same
// new credentials (or the same error). The refresh request itself runs on a
// detached context, so a waiter cancelling its own context abandons the
// wait without aborting the refresh for everyone else.
//
// # Persistence
//
// Credentials live in memory by default. Supplying a CredentialsStore in
// Options makes the Store persist every new token and restore it on
// construction. MemoryCredentialsStore suits tests and single-process use;
// RedisCredentialsStore shares one merchant's token across instances.
package oauth
