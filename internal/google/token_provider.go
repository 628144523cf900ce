package google

import (
	"context"
	"net/http"
)

// ClientProvider hands out authorized HTTP clients per account. The server
// context and the CLI commands depend on it rather than on Authenticator.
type ClientProvider interface {
	HTTPClient(ctx context.Context, account string) (*http.Client, error)
	HasToken(account string) bool
}

// Authorizer runs the consent flow that creates the token of an account.
type Authorizer interface {
	AuthURL(account string) (string, error)
	SaveToken(ctx context.Context, account, code string) error
}

var (
	_ ClientProvider = (*Authenticator)(nil)
	_ Authorizer     = (*Authenticator)(nil)
)
