package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const authorizeTokenPlaceholder = "{token}"

// ProviderParameters is the immutable per-provider configuration: identity,
// signing credentials, and the three OAuth 1.0a endpoints. Values are
// normalized and validated once at construction and never mutated after.
type ProviderParameters struct {
	Name                 string
	DisplayName          string
	APIKey               string
	AppID                string
	Secret               string
	RequestTokenURL      string
	AccessTokenURL       string
	AuthorizeURLTemplate string
}

func (p ProviderParameters) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("core: provider name is required")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return fmt.Errorf("core: api key is required for provider %q", p.Name)
	}
	if strings.TrimSpace(p.Secret) == "" {
		return fmt.Errorf("core: secret is required for provider %q", p.Name)
	}
	if err := validateEndpointURL(p.RequestTokenURL); err != nil {
		return fmt.Errorf("core: request token url for provider %q: %w", p.Name, err)
	}
	if err := validateEndpointURL(p.AccessTokenURL); err != nil {
		return fmt.Errorf("core: access token url for provider %q: %w", p.Name, err)
	}
	template := strings.TrimSpace(p.AuthorizeURLTemplate)
	if template == "" {
		return fmt.Errorf("core: authorize url template is required for provider %q", p.Name)
	}
	if !strings.Contains(template, authorizeTokenPlaceholder) {
		return fmt.Errorf(
			"core: authorize url template for provider %q is missing the %s placeholder",
			p.Name,
			authorizeTokenPlaceholder,
		)
	}
	return nil
}

// AuthorizeURL expands the authorize template with the request token value.
// Pure string work, no network.
func (p ProviderParameters) AuthorizeURL(requestTokenValue string) string {
	return strings.ReplaceAll(
		strings.TrimSpace(p.AuthorizeURLTemplate),
		authorizeTokenPlaceholder,
		url.QueryEscape(strings.TrimSpace(requestTokenValue)),
	)
}

func (p ProviderParameters) normalized() ProviderParameters {
	return ProviderParameters{
		Name:                 strings.TrimSpace(strings.ToLower(p.Name)),
		DisplayName:          strings.TrimSpace(p.DisplayName),
		APIKey:               strings.TrimSpace(p.APIKey),
		AppID:                strings.TrimSpace(p.AppID),
		Secret:               strings.TrimSpace(p.Secret),
		RequestTokenURL:      strings.TrimSpace(p.RequestTokenURL),
		AccessTokenURL:       strings.TrimSpace(p.AccessTokenURL),
		AuthorizeURLTemplate: strings.TrimSpace(p.AuthorizeURLTemplate),
	}
}

func validateEndpointURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("url %q must be absolute", trimmed)
	}
	return nil
}

// OAuthToken is a value/secret pair issued by the provider, either a
// short-lived request token or the long-lived access token.
type OAuthToken struct {
	Value  string
	Secret string
}

func (t OAuthToken) IsZero() bool {
	return strings.TrimSpace(t.Value) == "" && strings.TrimSpace(t.Secret) == ""
}

// OptionalToken makes token absence explicit: anonymous clients are built
// from NoToken, authenticated ones from SomeToken. There is no nil-token
// mode anywhere in the API.
type OptionalToken struct {
	token   OAuthToken
	present bool
}

func SomeToken(token OAuthToken) OptionalToken {
	return OptionalToken{token: token, present: true}
}

func NoToken() OptionalToken {
	return OptionalToken{}
}

func (o OptionalToken) Present() bool {
	return o.present
}

func (o OptionalToken) Token() (OAuthToken, bool) {
	if !o.present {
		return OAuthToken{}, false
	}
	return o.token, true
}

// AuthorizedRequestToken is the request token plus the one-time verifier the
// provider hands back after the user approves access. Consumed exactly once
// during the access token exchange.
type AuthorizedRequestToken struct {
	Value    string
	Secret   string
	Verifier string
}

func (t AuthorizedRequestToken) Validate() error {
	if strings.TrimSpace(t.Value) == "" {
		return fmt.Errorf("core: request token value is required")
	}
	if strings.TrimSpace(t.Secret) == "" {
		return fmt.Errorf("core: request token secret is required")
	}
	if strings.TrimSpace(t.Verifier) == "" {
		return fmt.Errorf("core: verifier is required")
	}
	return nil
}

// AccountConnection is the persisted link between a local account and a
// provider-side account. At most one per (account id, provider name).
type AccountConnection struct {
	ID                string
	AccountID         string
	ProviderName      string
	AccessToken       OAuthToken
	ProviderAccountID string
	ProfileURL        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ConnectionPhase tracks where a caller is in the authorization dance. The
// orchestrator itself is stateless between calls; the phase lives in the
// caller's session and the repository.
type ConnectionPhase string

const (
	PhaseUnconnected        ConnectionPhase = "unconnected"
	PhaseRequestTokenIssued ConnectionPhase = "request_token_issued"
	PhaseAuthorized         ConnectionPhase = "authorized"
	PhaseConnected          ConnectionPhase = "connected"
)

func (p ConnectionPhase) CanTransitionTo(next ConnectionPhase) bool {
	switch p {
	case PhaseUnconnected:
		return next == PhaseRequestTokenIssued
	case PhaseRequestTokenIssued:
		return next == PhaseAuthorized
	case PhaseAuthorized:
		return next == PhaseConnected
	case PhaseConnected:
		return next == PhaseUnconnected
	default:
		return false
	}
}

func (p ConnectionPhase) TransitionTo(next ConnectionPhase) (ConnectionPhase, error) {
	if !p.CanTransitionTo(next) {
		return p, fmt.Errorf("core: invalid phase transition %s -> %s", p, next)
	}
	return next, nil
}
