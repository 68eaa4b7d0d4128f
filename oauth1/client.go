package oauth1

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-connect/core"
)

const (
	defaultTokenRequestTimeout = 30 * time.Second
	maxTokenResponseBodyBytes  = 1 << 20 // 1 MiB

	outOfBandCallback = "oob"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	HTTPClient          HTTPDoer
	Signer              *RequestSigner
	TokenRequestTimeout time.Duration
}

// Client performs the two token legs of the OAuth 1.0a dance against a
// provider's endpoints. Clients are stateless; one instance serves any number
// of providers and accounts.
type Client struct {
	httpClient HTTPDoer
	signer     *RequestSigner
	timeout    time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.TokenRequestTimeout
	if timeout <= 0 {
		timeout = defaultTokenRequestTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	signer := cfg.Signer
	if signer == nil {
		signer = &RequestSigner{}
	}
	return &Client{
		httpClient: httpClient,
		signer:     signer,
		timeout:    timeout,
	}
}

// FetchRequestToken posts to the request token endpoint with the callback
// bound into the signed oauth parameters. An empty callback is sent as "oob"
// per the out-of-band convention.
func (c *Client) FetchRequestToken(
	ctx context.Context,
	params core.ProviderParameters,
	callbackURL string,
) (core.OAuthToken, error) {
	if c == nil {
		return core.OAuthToken{}, fmt.Errorf("oauth1: client is required")
	}
	callbackURL = strings.TrimSpace(callbackURL)
	callback := callbackURL
	if callback == "" {
		callback = outOfBandCallback
	}

	values, err := c.postTokenRequest(ctx, params.RequestTokenURL, params, "", "", map[string]string{
		"oauth_callback": callback,
	})
	if err != nil {
		return core.OAuthToken{}, fmt.Errorf("oauth1: request token fetch failed: %w", err)
	}

	token, err := tokenFromValues(values)
	if err != nil {
		return core.OAuthToken{}, fmt.Errorf("oauth1: request token response: %w", err)
	}
	if callbackURL != "" && values.Get("oauth_callback_confirmed") != "true" {
		return core.OAuthToken{}, fmt.Errorf("oauth1: provider did not confirm the callback")
	}
	return token, nil
}

// ExchangeAccessToken trades an authorized request token and its verifier for
// the long-lived access token.
func (c *Client) ExchangeAccessToken(
	ctx context.Context,
	params core.ProviderParameters,
	authorized core.AuthorizedRequestToken,
) (core.OAuthToken, error) {
	if c == nil {
		return core.OAuthToken{}, fmt.Errorf("oauth1: client is required")
	}
	if err := authorized.Validate(); err != nil {
		return core.OAuthToken{}, err
	}

	values, err := c.postTokenRequest(
		ctx,
		params.AccessTokenURL,
		params,
		authorized.Value,
		authorized.Secret,
		map[string]string{
			"oauth_verifier": strings.TrimSpace(authorized.Verifier),
		},
	)
	if err != nil {
		return core.OAuthToken{}, fmt.Errorf("oauth1: access token exchange failed: %w", err)
	}

	token, err := tokenFromValues(values)
	if err != nil {
		return core.OAuthToken{}, fmt.Errorf("oauth1: access token response: %w", err)
	}
	return token, nil
}

func (c *Client) postTokenRequest(
	ctx context.Context,
	endpoint string,
	params core.ProviderParameters,
	tokenValue string,
	tokenSecret string,
	extra map[string]string,
) (url.Values, error) {
	if c.httpClient == nil {
		return nil, fmt.Errorf("oauth1: http client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("oauth1: token endpoint url is required")
	}

	requestCtx := ctx
	cancel := func() {}
	if c.timeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, err
	}
	header, err := c.signer.authorizationHeader(httpReq, params, tokenValue, tokenSecret, extra)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", header)
	httpReq.Header.Set("Accept", "application/x-www-form-urlencoded")

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxTokenResponseBodyBytes+1))
	if readErr != nil {
		return nil, fmt.Errorf("read token response: %w", readErr)
	}
	if int64(len(body)) > maxTokenResponseBodyBytes {
		return nil, fmt.Errorf("token response exceeds %d bytes", maxTokenResponseBodyBytes)
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("token endpoint error (%d): %s", response.StatusCode, summarizeBody(body))
	}

	values, parseErr := url.ParseQuery(string(body))
	if parseErr != nil {
		return nil, fmt.Errorf("decode token response: %w", parseErr)
	}
	return values, nil
}

func tokenFromValues(values url.Values) (core.OAuthToken, error) {
	token := core.OAuthToken{
		Value:  strings.TrimSpace(values.Get("oauth_token")),
		Secret: strings.TrimSpace(values.Get("oauth_token_secret")),
	}
	if token.Value == "" {
		return core.OAuthToken{}, fmt.Errorf("missing oauth_token")
	}
	if token.Secret == "" {
		return core.OAuthToken{}, fmt.Errorf("missing oauth_token_secret")
	}
	return token, nil
}

func summarizeBody(body []byte) string {
	summary := strings.TrimSpace(string(body))
	if summary == "" {
		return "empty response"
	}
	if len(summary) > 256 {
		summary = summary[:256]
	}
	return summary
}

var (
	_ core.OAuthFlow = (*Client)(nil)
	_ core.Signer    = (*RequestSigner)(nil)
)
