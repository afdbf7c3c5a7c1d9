// Package credential turns a stored Google authorized-user token into an
// authenticated HTTP client for the Gmail and Drive APIs.
package credential

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
)

// Scopes requested when the token file does not list its own.
var Scopes = []string{
	gmail.GmailModifyScope,
	gmail.GmailComposeScope,
	gmail.GmailSendScope,
	drive.DriveFileScope,
}

// AuthorizedUser is the token document written by Google's installed-app
// flow (the contents of token.json).
type AuthorizedUser struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes"`
	Expiry       string   `json:"expiry"`
}

func ParseAuthorizedUser(data []byte) (AuthorizedUser, error) {
	var au AuthorizedUser
	if err := json.Unmarshal(data, &au); err != nil {
		return AuthorizedUser{}, errors.Wrap(err, "parse google token")
	}
	if au.Token == "" && au.RefreshToken == "" {
		return AuthorizedUser{}, errors.New("google token has neither an access token nor a refresh token")
	}
	if au.RefreshToken != "" && (au.ClientID == "" || au.ClientSecret == "") {
		return AuthorizedUser{}, errors.New("google token with a refresh token needs client_id and client_secret")
	}
	return au, nil
}

// OAuthConfig returns the client configuration used to refresh the token.
func (a AuthorizedUser) OAuthConfig() *oauth2.Config {
	endpoint := google.Endpoint
	if a.TokenURI != "" {
		endpoint.TokenURL = a.TokenURI
	}
	scopes := a.Scopes
	if len(scopes) == 0 {
		scopes = Scopes
	}
	return &oauth2.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

// OAuthToken converts the stored token. An unparseable expiry is treated as
// already expired so the first call refreshes.
func (a AuthorizedUser) OAuthToken() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  a.Token,
		RefreshToken: a.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp := strings.TrimSpace(a.Expiry); exp != "" {
		if t, err := time.Parse(time.RFC3339, exp); err == nil {
			tok.Expiry = t
		} else {
			tok.Expiry = time.Unix(1, 0)
		}
	}
	return tok
}

// TokenSource returns a refreshing token source.
func (a AuthorizedUser) TokenSource(ctx context.Context) oauth2.TokenSource {
	return a.OAuthConfig().TokenSource(ctx, a.OAuthToken())
}

// HTTPClient parses a token document and returns a client that authorizes and
// refreshes on every request.
func HTTPClient(ctx context.Context, data []byte) (*http.Client, error) {
	au, err := ParseAuthorizedUser(data)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, au.TokenSource(ctx)), nil
}
