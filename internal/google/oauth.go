package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/mailmeet/internal/config"
)

// ErrNoToken is returned when an account has not been authorized yet.
var ErrNoToken = errors.New("no Google OAuth token found")

var accountNameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// DefaultAccount is used when a caller does not name an account.
const DefaultAccount = "default"

// Authenticator runs the installed-app OAuth flow and stores one token file
// per account.
type Authenticator struct {
	conf *oauth2.Config
	dir  string
}

// NewAuthenticator returns an Authenticator storing tokens in dir. An empty dir
// uses DefaultTokenDir.
func NewAuthenticator(cfg config.GoogleConfig, dir string) (*Authenticator, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultTokenDir(); err != nil {
			return nil, err
		}
	}
	return &Authenticator{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
		},
		dir: dir,
	}, nil
}

// DefaultTokenDir is mailmeet below the user cache directory.
func DefaultTokenDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	return filepath.Join(base, "mailmeet"), nil
}

func validateAccountName(account string) error {
	if !accountNameRE.MatchString(account) {
		return fmt.Errorf("invalid account name %q: use letters, digits, '-' or '_'", account)
	}
	return nil
}

func (a *Authenticator) tokenFile(account string) string {
	return filepath.Join(a.dir, "google-"+account+".token")
}

// AuthURL returns the consent URL for account. The account name travels as
// the state parameter.
func (a *Authenticator) AuthURL(account string) (string, error) {
	if err := validateAccountName(account); err != nil {
		return "", err
	}
	return a.conf.AuthCodeURL(account, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// SaveToken exchanges an authorization code and stores the token for account.
func (a *Authenticator) SaveToken(ctx context.Context, account, code string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return a.writeToken(account, tok)
}

func (a *Authenticator) writeToken(account string, tok *oauth2.Token) error {
	if err := os.MkdirAll(a.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(a.tokenFile(account), data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (a *Authenticator) readToken(account string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(a.tokenFile(account))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w for account %q, run 'mailmeet auth --account %s'", ErrNoToken, account, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file for account %q: %w", account, err)
	}
	return &tok, nil
}

// HasToken reports whether a token file exists for account.
func (a *Authenticator) HasToken(account string) bool {
	_, err := a.readToken(account)
	return err == nil
}

// TokenSource returns a refreshing token source for account. Refreshed tokens
// are written back to disk.
func (a *Authenticator) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	tok, err := a.readToken(account)
	if err != nil {
		return nil, err
	}
	return &persistingSource{
		base:    oauth2.ReuseTokenSource(tok, a.conf.TokenSource(ctx, tok)),
		last:    tok.AccessToken,
		persist: func(t *oauth2.Token) error { return a.writeToken(account, t) },
	}, nil
}

// HTTPClient returns an authorized client for account. It speaks HTTP/1.1 and
// carries an otelhttp transport so API calls show up in traces.
func (a *Authenticator) HTTPClient(ctx context.Context, account string) (*http.Client, error) {
	ts, err := a.TokenSource(ctx, account)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   otelhttp.NewTransport(&http.Transport{ForceAttemptHTTP2: false}),
		},
	}, nil
}

type persistingSource struct {
	base    oauth2.TokenSource
	last    string
	persist func(*oauth2.Token) error
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		if err := s.persist(tok); err != nil {
			return nil, err
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
