package services

import (
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
)

// NativeCallbackPath is the redirect path that carries the authorization code
const NativeCallbackPath = "/oauth/authorize/native"

// AuthConfiguration describes the OAuth application
type AuthConfiguration struct {
	AccessKey    string
	SecretKey    string
	RedirectURI  string
	Scopes       []string
	AuthorizeURL string
	TokenURL     string
}

// OAuth2Config builds the oauth2 configuration shared by the helper and the token exchange
func (c AuthConfiguration) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.AccessKey,
		ClientSecret: c.SecretKey,
		RedirectURL:  c.RedirectURI,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthorizeURL,
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// NavigationPolicy is the decision for a navigation inside the login browser
type NavigationPolicy int

const (
	PolicyAllow NavigationPolicy = iota
	PolicyCancel
)

// AuthHelper builds the authorization URL and recognizes the redirect that ends the flow
type AuthHelper struct {
	config AuthConfiguration
}

// NewAuthHelper creates a new auth helper
func NewAuthHelper(config AuthConfiguration) *AuthHelper {
	return &AuthHelper{config: config}
}

// AuthURL returns the interactive authorization URL
func (h *AuthHelper) AuthURL() (*url.URL, error) {
	if _, err := url.ParseRequestURI(h.config.AuthorizeURL); err != nil {
		return nil, fmt.Errorf("invalid authorize URL: %w", err)
	}
	raw := h.config.OAuth2Config().AuthCodeURL("")
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to build authorize URL: %w", err)
	}
	return u, nil
}

// CodeFromURL extracts the authorization code from a native callback URL
func (h *AuthHelper) CodeFromURL(u *url.URL) (string, bool) {
	if u == nil || u.Path != NativeCallbackPath {
		return "", false
	}
	values, ok := u.Query()["code"]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// DecidePolicy cancels the navigation to the native callback and hands back its code;
// all other navigation is allowed
func (h *AuthHelper) DecidePolicy(u *url.URL) (NavigationPolicy, string) {
	if code, ok := h.CodeFromURL(u); ok {
		return PolicyCancel, code
	}
	return PolicyAllow, ""
}
