package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"timebuddy/internal/config"
)

// GoogleUser is the verified identity returned by Google.
type GoogleUser struct {
	Subject  string
	Email    string
	Verified bool
}

// GoogleExchanger runs the OAuth code flow against Google.
type GoogleExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (GoogleUser, error)
}

type GoogleProvider struct {
	cfg *oauth2.Config
}

var _ GoogleExchanger = (*GoogleProvider)(nil)

func NewGoogleProvider(c config.GoogleConfig) *GoogleProvider {
	redirect := c.RedirectURL
	if redirect == "" {
		redirect = "urn:ietf:wg:oauth:2.0:oob"
	}
	return &GoogleProvider{cfg: &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       []string{oauth2api.UserinfoEmailScope, oauth2api.OpenIDScope},
		Endpoint:     google.Endpoint,
	}}
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a token and reads the user info.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (GoogleUser, error) {
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return GoogleUser{}, fmt.Errorf("exchange code: %w", err)
	}
	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(p.cfg.TokenSource(ctx, tok)))
	if err != nil {
		return GoogleUser{}, fmt.Errorf("create oauth2 service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return GoogleUser{}, fmt.Errorf("fetch user info: %w", err)
	}
	if info.Id == "" || info.Email == "" {
		return GoogleUser{}, errors.New("google returned no account id or email")
	}
	verified := info.VerifiedEmail != nil && *info.VerifiedEmail
	return GoogleUser{Subject: info.Id, Email: info.Email, Verified: verified}, nil
}
