// Package auth acquires bearer tokens for the management API.
//
// Tokens are obtained with the OAuth2 client-credentials flow against the
// tenant's token endpoint. Nothing is cached: each [TokenProvider.AcquireToken]
// call goes to the identity provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrAuthentication is returned when the identity provider rejects the
// credentials or cannot be reached.
var ErrAuthentication = errors.New("authentication failed")

// TokenProvider acquires a bearer token for the management API.
type TokenProvider interface {
	AcquireToken(ctx context.Context) (string, error)
}

// ClientCredentials is a [TokenProvider] using the client-credentials grant.
type ClientCredentials struct {
	config     clientcredentials.Config
	httpClient *http.Client
}

// Option customises a [ClientCredentials] provider.
type Option func(*ClientCredentials)

// WithHTTPClient sets the HTTP client used to reach the token endpoint.
func WithHTTPClient(c *http.Client) Option {
	return func(cc *ClientCredentials) {
		cc.httpClient = c
	}
}

// NewClientCredentials creates a provider for the given tenant and service principal.
//
// The token endpoint is {authorityHost}/{tenantID}/oauth2/token and the
// requested audience is resource.
func NewClientCredentials(authorityHost, tenantID, clientID, secret, resource string, opts ...Option) *ClientCredentials {
	cc := &ClientCredentials{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: secret,
			TokenURL:     TokenURL(authorityHost, tenantID),
			AuthStyle:    oauth2.AuthStyleInParams,
			EndpointParams: map[string][]string{
				"resource": {resource},
			},
		},
	}
	for _, opt := range opts {
		opt(cc)
	}
	return cc
}

// TokenURL builds the tenant token endpoint.
func TokenURL(authorityHost, tenantID string) string {
	return fmt.Sprintf("%s/%s/oauth2/token", strings.TrimRight(authorityHost, "/"), tenantID)
}

// AcquireToken exchanges the client id and secret for an access token.
func (c *ClientCredentials) AcquireToken(ctx context.Context) (string, error) {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	tok, err := c.config.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: identity provider returned an empty token", ErrAuthentication)
	}
	return tok.AccessToken, nil
}

// StaticToken is a [TokenProvider] returning a fixed token.
//
// Useful for pre-issued tokens and tests. An empty StaticToken fails with
// [ErrAuthentication].
type StaticToken string

// AcquireToken returns the token itself.
func (s StaticToken) AcquireToken(_ context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: no token configured", ErrAuthentication)
	}
	return string(s), nil
}
