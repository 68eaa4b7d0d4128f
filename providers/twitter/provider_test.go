package twitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-connect/core"
)

func TestNew_DefaultEndpoints(t *testing.T) {
	provider, err := New(Config{ConsumerKey: "K", ConsumerSecret: "S"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	if provider.Name() != ProviderName {
		t.Fatalf("expected provider name %q, got %q", ProviderName, provider.Name())
	}
	if provider.DisplayName() != DisplayName {
		t.Fatalf("expected display name %q, got %q", DisplayName, provider.DisplayName())
	}

	params := provider.Params()
	if params.RequestTokenURL != RequestTokenURL {
		t.Fatalf("expected default request token url, got %q", params.RequestTokenURL)
	}
	if params.AccessTokenURL != AccessTokenURL {
		t.Fatalf("expected default access token url, got %q", params.AccessTokenURL)
	}

	authorizeURL := provider.BuildAuthorizeURL("rt1")
	if authorizeURL != "https://api.twitter.com/oauth/authorize?oauth_token=rt1" {
		t.Fatalf("unexpected authorize url %q", authorizeURL)
	}
}

func TestNew_RequiresConsumerCredentials(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for missing consumer credentials")
	}
}

func TestSource_FetchProviderAccountID(t *testing.T) {
	var gotAuthorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/account/verify_credentials.json" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		gotAuthorization = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id_str":"12345","screen_name":"kdonald","name":"Keith"}`))
	}))
	defer server.Close()

	source := &Source{
		httpClient: server.Client(),
		params:     core.ProviderParameters{Name: ProviderName, APIKey: "K", Secret: "S"},
		apiBaseURL: server.URL,
	}

	token := core.OAuthToken{Value: "at1", Secret: "as1"}
	ops, err := source.BuildServiceOperations(context.Background(), core.SomeToken(token))
	if err != nil {
		t.Fatalf("build service operations: %v", err)
	}
	if !ops.Authenticated() {
		t.Fatalf("expected authenticated client")
	}

	providerAccountID, err := source.FetchProviderAccountID(context.Background(), ops)
	if err != nil {
		t.Fatalf("fetch provider account id: %v", err)
	}
	if providerAccountID != "kdonald" {
		t.Fatalf("expected screen name kdonald, got %q", providerAccountID)
	}
	if !strings.HasPrefix(gotAuthorization, "OAuth ") {
		t.Fatalf("expected signed request, got authorization %q", gotAuthorization)
	}
	if !strings.Contains(gotAuthorization, `oauth_token="at1"`) {
		t.Fatalf("expected access token in authorization header, got %q", gotAuthorization)
	}
}

func TestSource_AnonymousClientRejectsCredentialCalls(t *testing.T) {
	source := &Source{
		params:     core.ProviderParameters{Name: ProviderName, APIKey: "K", Secret: "S"},
		apiBaseURL: "https://api.invalid",
	}

	ops, err := source.BuildServiceOperations(context.Background(), core.NoToken())
	if err != nil {
		t.Fatalf("build anonymous operations: %v", err)
	}
	if ops.Authenticated() {
		t.Fatalf("expected anonymous client")
	}
	if _, err := source.FetchProviderAccountID(context.Background(), ops); err == nil {
		t.Fatalf("expected error for anonymous credential lookup")
	}
}

func TestSource_ProfileURL(t *testing.T) {
	source := &Source{}
	if got := source.ProfileURL("kdonald", nil); got != "https://twitter.com/kdonald" {
		t.Fatalf("unexpected profile url %q", got)
	}
	if got := source.ProfileURL("  ", nil); got != "" {
		t.Fatalf("expected empty profile url for blank account id, got %q", got)
	}
}

func TestNew_RequestTokenAgainstStubEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/request_token" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		_, _ = w.Write([]byte("oauth_token=rt1&oauth_token_secret=rs1&oauth_callback_confirmed=true"))
	}))
	defer server.Close()

	provider, err := New(Config{
		ConsumerKey:          "K",
		ConsumerSecret:       "S",
		RequestTokenURL:      server.URL + "/oauth/request_token",
		AccessTokenURL:       server.URL + "/oauth/access_token",
		AuthorizeURLTemplate: server.URL + "/oauth/authorize?oauth_token={token}",
		HTTPClient:           server.Client(),
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	requestToken, err := provider.FetchNewRequestToken(context.Background(), "https://app.example/callback")
	if err != nil {
		t.Fatalf("fetch request token: %v", err)
	}
	if requestToken.Value != "rt1" || requestToken.Secret != "rs1" {
		t.Fatalf("unexpected request token %+v", requestToken)
	}
}
