package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-connect/core"
	"github.com/goliatone/go-connect/oauth1"
)

const (
	ProviderName         = "linkedin"
	DisplayName          = "LinkedIn"
	RequestTokenURL      = "https://api.linkedin.com/uas/oauth/requestToken"
	AccessTokenURL       = "https://api.linkedin.com/uas/oauth/accessToken"
	AuthorizeURLTemplate = "https://www.linkedin.com/uas/oauth/authorize?oauth_token={token}"

	defaultAPIBaseURL   = "https://api.linkedin.com/v1"
	profilePath         = "/people/~:(id,first-name,last-name,public-profile-url)?format=json"
	maxAPIResponseBytes = 1 << 20 // 1 MiB

	defaultRequestTimeout = 10 * time.Second
)

type Config struct {
	ConsumerKey          string
	ConsumerSecret       string
	RequestTokenURL      string
	AccessTokenURL       string
	AuthorizeURLTemplate string
	APIBaseURL           string
	HTTPClient           oauth1.HTTPDoer
	Service              core.Config
}

func DefaultConfig() Config {
	return Config{
		RequestTokenURL:      RequestTokenURL,
		AccessTokenURL:       AccessTokenURL,
		AuthorizeURLTemplate: AuthorizeURLTemplate,
		APIBaseURL:           defaultAPIBaseURL,
	}
}

func New(cfg Config, options ...core.Option) (*core.Provider[*Client], error) {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.RequestTokenURL) == "" {
		cfg.RequestTokenURL = defaults.RequestTokenURL
	}
	if strings.TrimSpace(cfg.AccessTokenURL) == "" {
		cfg.AccessTokenURL = defaults.AccessTokenURL
	}
	if strings.TrimSpace(cfg.AuthorizeURLTemplate) == "" {
		cfg.AuthorizeURLTemplate = defaults.AuthorizeURLTemplate
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = defaults.APIBaseURL
	}

	params := core.ProviderParameters{
		Name:                 ProviderName,
		DisplayName:          DisplayName,
		APIKey:               cfg.ConsumerKey,
		Secret:               cfg.ConsumerSecret,
		RequestTokenURL:      cfg.RequestTokenURL,
		AccessTokenURL:       cfg.AccessTokenURL,
		AuthorizeURLTemplate: cfg.AuthorizeURLTemplate,
	}

	signer := &oauth1.RequestSigner{}
	flow := oauth1.NewClient(oauth1.ClientConfig{
		HTTPClient: cfg.HTTPClient,
		Signer:     signer,
	})
	source := &Source{
		httpClient: cfg.HTTPClient,
		signer:     signer,
		params:     params,
		apiBaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
	}

	opts := append([]core.Option{core.WithOAuthFlow(flow)}, options...)
	return core.NewProvider[*Client](cfg.Service, params, source, opts...)
}

// Profile is the subset of the member profile the connect flow cares about.
type Profile struct {
	ID               string `json:"id"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	PublicProfileURL string `json:"publicProfileUrl"`
}

// Client is the typed LinkedIn REST surface. The most recent fetched profile
// is cached so the connect flow can derive the public profile URL without a
// second round trip.
type Client struct {
	httpClient oauth1.HTTPDoer
	signer     core.Signer
	params     core.ProviderParameters
	token      core.OptionalToken
	apiBaseURL string

	lastProfile *Profile
}

func (c *Client) Authenticated() bool {
	if c == nil {
		return false
	}
	_, present := c.token.Token()
	return present
}

// CurrentProfile fetches the member profile behind the attached access token.
func (c *Client) CurrentProfile(ctx context.Context) (Profile, error) {
	if c == nil {
		return Profile{}, fmt.Errorf("linkedin: client is required")
	}
	token, present := c.token.Token()
	if !present {
		return Profile{}, fmt.Errorf("linkedin: access token is required")
	}

	endpoint := c.apiBaseURL + profilePath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("linkedin: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if err := c.signer.Sign(ctx, req, c.params, token); err != nil {
		return Profile{}, fmt.Errorf("linkedin: sign request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("linkedin: fetch profile: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxAPIResponseBytes+1))
	if err != nil {
		return Profile{}, fmt.Errorf("linkedin: read response: %w", err)
	}
	if int64(len(body)) > maxAPIResponseBytes {
		return Profile{}, fmt.Errorf("linkedin: response exceeds %d bytes", maxAPIResponseBytes)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return Profile{}, fmt.Errorf("linkedin: provider api returned status %d", res.StatusCode)
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return Profile{}, fmt.Errorf("linkedin: decode profile: %w", err)
	}
	c.lastProfile = &profile
	return profile, nil
}

// Source builds LinkedIn clients for the connect flow. The member id is the
// provider account id; the profile URL comes from the fetched profile.
type Source struct {
	httpClient oauth1.HTTPDoer
	signer     core.Signer
	params     core.ProviderParameters
	apiBaseURL string
}

func (s *Source) BuildServiceOperations(_ context.Context, token core.OptionalToken) (*Client, error) {
	if s == nil {
		return nil, fmt.Errorf("linkedin: source is required")
	}
	httpClient := s.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	signer := s.signer
	if signer == nil {
		signer = &oauth1.RequestSigner{}
	}
	apiBaseURL := s.apiBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	return &Client{
		httpClient: httpClient,
		signer:     signer,
		params:     s.params,
		token:      token,
		apiBaseURL: apiBaseURL,
	}, nil
}

func (s *Source) FetchProviderAccountID(ctx context.Context, ops *Client) (string, error) {
	profile, err := ops.CurrentProfile(ctx)
	if err != nil {
		return "", err
	}
	memberID := strings.TrimSpace(profile.ID)
	if memberID == "" {
		return "", fmt.Errorf("linkedin: provider account id missing from profile")
	}
	return memberID, nil
}

func (s *Source) ProfileURL(providerAccountID string, ops *Client) string {
	if ops == nil || ops.lastProfile == nil {
		return ""
	}
	if strings.TrimSpace(providerAccountID) != strings.TrimSpace(ops.lastProfile.ID) {
		return ""
	}
	return strings.TrimSpace(ops.lastProfile.PublicProfileURL)
}

var _ core.ServiceSource[*Client] = (*Source)(nil)
