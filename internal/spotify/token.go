package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	httpclient "github.com/handiism/lyrics-harvester/internal/http"
	"github.com/handiism/lyrics-harvester/internal/model"
	"github.com/handiism/lyrics-harvester/internal/spotify/dto"
)

// DefaultAccountsURL is the client-credentials token endpoint.
const DefaultAccountsURL = "https://accounts.spotify.com/api/token"

// expiryMargin is subtracted from expires_in so a token is never used in
// its last minute.
const expiryMargin = 60 * time.Second

// Token is a bearer access token.
//
// A token is valid until ExpiresAt. Once expired it is discarded and never
// used again; a fresh token is fetched instead.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the token can be used at now.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// TokenSource fetches new access tokens.
type TokenSource interface {
	Token(ctx context.Context) (Token, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (Token, error)

// Token calls f.
func (f TokenSourceFunc) Token(ctx context.Context) (Token, error) {
	return f(ctx)
}

// ClientCredentials fetches app tokens with the client-credentials grant.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	URL          string
	HTTP         *httpclient.Client
	Now          func() time.Time
}

// ErrMissingCredentials is returned when the client id or secret is empty.
var ErrMissingCredentials = errors.New("spotify client id and secret are required")

// Token posts grant_type=client_credentials with HTTP Basic auth.
func (c *ClientCredentials) Token(ctx context.Context) (Token, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return Token{}, fmt.Errorf("%w: %w", model.ErrAuthFailure, ErrMissingCredentials)
	}

	endpoint := c.URL
	if endpoint == "" {
		endpoint = DefaultAccountsURL
	}
	form := url.Values{"grant_type": {"client_credentials"}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.SetBasicAuth(c.ClientID, c.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := c.HTTP
	if client == nil {
		client = httpclient.NewClient()
	}
	body, err := client.Do(req)
	if err != nil {
		return Token{}, tokenError(err)
	}

	var tr dto.TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, fmt.Errorf("decode token: %w", err)
	}
	if tr.AccessToken == "" {
		return Token{}, fmt.Errorf("empty access token: %w", model.ErrAuthFailure)
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return Token{
		AccessToken: tr.AccessToken,
		ExpiresAt:   now().Add(time.Duration(tr.ExpiresIn)*time.Second - expiryMargin),
	}, nil
}

// tokenError classifies a failed token request. The accounts service
// answers bad credentials with 400 invalid_client, so every 4xx except 429
// is an auth failure. The status is kept as text only: a 404 here must not
// read as a track that was not found.
func tokenError(err error) error {
	var se *httpclient.StatusError
	if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 && se.Code != http.StatusTooManyRequests {
		return fmt.Errorf("%w: token request: %v", model.ErrAuthFailure, err)
	}
	return fmt.Errorf("token request: %w", err)
}
