package oauth1

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-connect/core"
)

const (
	signatureMethodHMACSHA1 = "HMAC-SHA1"
	protocolVersion         = "1.0"
	nonceByteLength         = 16
)

// RequestSigner produces OAuth 1.0a Authorization headers with HMAC-SHA1
// signatures. Nonce and Now exist so tests can pin the otherwise random
// protocol parameters.
type RequestSigner struct {
	Nonce func() (string, error)
	Now   func() time.Time
}

// Sign authorizes an arbitrary provider API request with the consumer
// credentials and the caller's access token.
func (s *RequestSigner) Sign(
	_ context.Context,
	req *http.Request,
	params core.ProviderParameters,
	token core.OAuthToken,
) error {
	if req == nil {
		return fmt.Errorf("oauth1: http request is required")
	}
	header, err := s.authorizationHeader(req, params, token.Value, token.Secret, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", header)
	return nil
}

// authorizationHeader builds the full OAuth header for req. extra carries
// call-specific protocol parameters such as oauth_callback or oauth_verifier;
// they are signed along with the base oauth parameters and the query string.
func (s *RequestSigner) authorizationHeader(
	req *http.Request,
	params core.ProviderParameters,
	tokenValue string,
	tokenSecret string,
	extra map[string]string,
) (string, error) {
	if req == nil || req.URL == nil {
		return "", fmt.Errorf("oauth1: http request with url is required")
	}
	if strings.TrimSpace(params.APIKey) == "" {
		return "", fmt.Errorf("oauth1: api key is required")
	}

	nonce, err := s.nonce()
	if err != nil {
		return "", fmt.Errorf("oauth1: nonce generation failed: %w", err)
	}
	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	oauthParams := map[string]string{
		"oauth_consumer_key":     params.APIKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": signatureMethodHMACSHA1,
		"oauth_timestamp":        timestamp,
		"oauth_version":          protocolVersion,
	}
	if strings.TrimSpace(tokenValue) != "" {
		oauthParams["oauth_token"] = strings.TrimSpace(tokenValue)
	}
	for key, value := range extra {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		oauthParams[key] = value
	}

	base := signatureBaseString(req.Method, req.URL, oauthParams)
	signature := signBaseString(base, params.Secret, tokenSecret)
	oauthParams["oauth_signature"] = signature

	return formatAuthorizationHeader(oauthParams), nil
}

func (s *RequestSigner) nonce() (string, error) {
	if s != nil && s.Nonce != nil {
		return s.Nonce()
	}
	buf := make([]byte, nonceByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (s *RequestSigner) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// signatureBaseString builds the RFC 5849 section 3.4.1 base string from the
// method, the base URI, and the normalized protocol plus query parameters.
func signatureBaseString(method string, requestURL *url.URL, oauthParams map[string]string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}

	pairs := make([][2]string, 0, len(oauthParams)+4)
	for key, value := range oauthParams {
		if key == "oauth_signature" {
			continue
		}
		pairs = append(pairs, [2]string{percentEncode(key), percentEncode(value)})
	}
	for key, values := range requestURL.Query() {
		for _, value := range values {
			pairs = append(pairs, [2]string{percentEncode(key), percentEncode(value)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	encoded := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		encoded = append(encoded, pair[0]+"="+pair[1])
	}

	return strings.Join([]string{
		method,
		percentEncode(baseURI(requestURL)),
		percentEncode(strings.Join(encoded, "&")),
	}, "&")
}

// baseURI is scheme://host/path with the default port stripped and the query
// omitted.
func baseURI(requestURL *url.URL) string {
	scheme := strings.ToLower(requestURL.Scheme)
	host := strings.ToLower(requestURL.Host)
	if scheme == "http" {
		host = strings.TrimSuffix(host, ":80")
	}
	if scheme == "https" {
		host = strings.TrimSuffix(host, ":443")
	}
	return scheme + "://" + host + requestURL.EscapedPath()
}

func signBaseString(base string, consumerSecret string, tokenSecret string) string {
	key := percentEncode(consumerSecret) + "&" + percentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func formatAuthorizationHeader(oauthParams map[string]string) string {
	keys := make([]string, 0, len(oauthParams))
	for key := range oauthParams {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, percentEncode(key)+`="`+percentEncode(oauthParams[key])+`"`)
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// percentEncode applies RFC 3986 section 2.1 encoding: everything but the
// unreserved set is escaped, spaces included.
func percentEncode(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))
	for _, b := range []byte(value) {
		if isUnreserved(b) {
			builder.WriteByte(b)
			continue
		}
		builder.WriteString(fmt.Sprintf("%%%02X", b))
	}
	return builder.String()
}

func isUnreserved(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '-' || b == '.' || b == '_' || b == '~':
		return true
	default:
		return false
	}
}
