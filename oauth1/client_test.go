package oauth1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-connect/core"
)

func serverParams(serverURL string) core.ProviderParameters {
	return core.ProviderParameters{
		Name:                 "p",
		APIKey:               "K",
		Secret:               "S",
		RequestTokenURL:      serverURL + "/oauth/request_token",
		AccessTokenURL:       serverURL + "/oauth/access_token",
		AuthorizeURLTemplate: serverURL + "/auth?token={token}",
	}
}

func TestClientFetchRequestToken(t *testing.T) {
	var capturedMethod string
	var capturedAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedMethod = r.Method
		capturedAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		w.Write([]byte("oauth_token=rt1&oauth_token_secret=rs1&oauth_callback_confirmed=true"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{Signer: pinnedSigner("nonce-1", 1234567890)})
	token, err := client.FetchRequestToken(context.Background(), serverParams(server.URL), "https://app.example/callback")
	if err != nil {
		t.Fatalf("fetch request token: %v", err)
	}
	if token.Value != "rt1" || token.Secret != "rs1" {
		t.Fatalf("unexpected token: %+v", token)
	}
	if capturedMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", capturedMethod)
	}
	if !strings.HasPrefix(capturedAuth, "OAuth ") {
		t.Fatalf("expected OAuth header, got %s", capturedAuth)
	}
	if !strings.Contains(capturedAuth, "oauth_callback=") {
		t.Fatalf("expected callback in header, got %s", capturedAuth)
	}
	if !strings.Contains(capturedAuth, percentEncode("https://app.example/callback")) {
		t.Fatalf("expected encoded callback value in header, got %s", capturedAuth)
	}
}

func TestClientFetchRequestTokenSendsOutOfBandCallback(t *testing.T) {
	var capturedAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		w.Write([]byte("oauth_token=rt1&oauth_token_secret=rs1"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{})
	if _, err := client.FetchRequestToken(context.Background(), serverParams(server.URL), "  "); err != nil {
		t.Fatalf("fetch request token: %v", err)
	}
	if !strings.Contains(capturedAuth, `oauth_callback="oob"`) {
		t.Fatalf("expected oob callback, got %s", capturedAuth)
	}
}

func TestClientFetchRequestTokenRequiresCallbackConfirmation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("oauth_token=rt1&oauth_token_secret=rs1"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{})
	_, err := client.FetchRequestToken(context.Background(), serverParams(server.URL), "https://app.example/callback")
	if err == nil {
		t.Fatal("expected unconfirmed callback to be rejected")
	}
	if !strings.Contains(err.Error(), "confirm") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}

func TestClientFetchRequestTokenRejectsIncompleteResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("oauth_token=rt1"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{})
	if _, err := client.FetchRequestToken(context.Background(), serverParams(server.URL), ""); err == nil {
		t.Fatal("expected missing token secret to be rejected")
	}
}

func TestClientFetchRequestTokenSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid consumer", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{})
	_, err := client.FetchRequestToken(context.Background(), serverParams(server.URL), "")
	if err == nil {
		t.Fatal("expected http error to surface")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestClientExchangeAccessToken(t *testing.T) {
	var capturedAuth string
	var capturedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		capturedPath = r.URL.Path
		w.Write([]byte("oauth_token=at1&oauth_token_secret=as1"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{Signer: pinnedSigner("nonce-2", 1234567890)})
	token, err := client.ExchangeAccessToken(context.Background(), serverParams(server.URL), core.AuthorizedRequestToken{
		Value:    "rt1",
		Secret:   "rs1",
		Verifier: "v1",
	})
	if err != nil {
		t.Fatalf("exchange access token: %v", err)
	}
	if token.Value != "at1" || token.Secret != "as1" {
		t.Fatalf("unexpected token: %+v", token)
	}
	if capturedPath != "/oauth/access_token" {
		t.Fatalf("expected access token endpoint, got %s", capturedPath)
	}
	if !strings.Contains(capturedAuth, `oauth_token="rt1"`) {
		t.Fatalf("expected request token in header, got %s", capturedAuth)
	}
	if !strings.Contains(capturedAuth, `oauth_verifier="v1"`) {
		t.Fatalf("expected verifier in header, got %s", capturedAuth)
	}
}

func TestClientExchangeAccessTokenValidatesInput(t *testing.T) {
	client := NewClient(ClientConfig{})
	_, err := client.ExchangeAccessToken(context.Background(), testParams(), core.AuthorizedRequestToken{
		Value:  "rt1",
		Secret: "rs1",
	})
	if err == nil {
		t.Fatal("expected missing verifier to be rejected")
	}
}
