package twitter

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
	ProviderName         = "twitter"
	DisplayName          = "Twitter"
	RequestTokenURL      = "https://api.twitter.com/oauth/request_token"
	AccessTokenURL       = "https://api.twitter.com/oauth/access_token"
	AuthorizeURLTemplate = "https://api.twitter.com/oauth/authorize?oauth_token={token}"

	defaultAPIBaseURL   = "https://api.twitter.com/1.1"
	profileURLBase      = "https://twitter.com/"
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

// New wires the Twitter OAuth 1.0a endpoints, signer, and service source into
// a ready provider. Additional core options layer on top of the defaults.
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

// Account is the subset of the verify_credentials payload the connect flow
// cares about.
type Account struct {
	ID         string `json:"id_str"`
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

// Client is the typed Twitter REST surface. Anonymous clients can be built
// but authenticated calls reject until a token is attached.
type Client struct {
	httpClient oauth1.HTTPDoer
	signer     core.Signer
	params     core.ProviderParameters
	token      core.OptionalToken
	apiBaseURL string
}

func (c *Client) Authenticated() bool {
	if c == nil {
		return false
	}
	_, present := c.token.Token()
	return present
}

// VerifyCredentials reports the account behind the attached access token.
func (c *Client) VerifyCredentials(ctx context.Context) (Account, error) {
	if c == nil {
		return Account{}, fmt.Errorf("twitter: client is required")
	}
	token, present := c.token.Token()
	if !present {
		return Account{}, fmt.Errorf("twitter: access token is required")
	}

	endpoint := c.apiBaseURL + "/account/verify_credentials.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Account{}, fmt.Errorf("twitter: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if err := c.signer.Sign(ctx, req, c.params, token); err != nil {
		return Account{}, fmt.Errorf("twitter: sign request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Account{}, fmt.Errorf("twitter: verify credentials: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxAPIResponseBytes+1))
	if err != nil {
		return Account{}, fmt.Errorf("twitter: read response: %w", err)
	}
	if int64(len(body)) > maxAPIResponseBytes {
		return Account{}, fmt.Errorf("twitter: response exceeds %d bytes", maxAPIResponseBytes)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return Account{}, fmt.Errorf("twitter: provider api returned status %d", res.StatusCode)
	}

	var account Account
	if err := json.Unmarshal(body, &account); err != nil {
		return Account{}, fmt.Errorf("twitter: decode account: %w", err)
	}
	return account, nil
}

// Source builds Twitter clients for the connect flow. The screen name doubles
// as the provider account id so profile URLs can be derived from it.
type Source struct {
	httpClient oauth1.HTTPDoer
	signer     core.Signer
	params     core.ProviderParameters
	apiBaseURL string
}

func (s *Source) BuildServiceOperations(_ context.Context, token core.OptionalToken) (*Client, error) {
	if s == nil {
		return nil, fmt.Errorf("twitter: source is required")
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
	account, err := ops.VerifyCredentials(ctx)
	if err != nil {
		return "", err
	}
	screenName := strings.TrimSpace(account.ScreenName)
	if screenName == "" {
		return "", fmt.Errorf("twitter: provider account id missing from credentials")
	}
	return screenName, nil
}

func (s *Source) ProfileURL(providerAccountID string, _ *Client) string {
	screenName := strings.TrimSpace(providerAccountID)
	if screenName == "" {
		return ""
	}
	return profileURLBase + screenName
}

var _ core.ServiceSource[*Client] = (*Source)(nil)
