package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type testServiceOps struct {
	token     OptionalToken
	accountID string
}

func (o *testServiceOps) Authenticated() bool {
	if o == nil {
		return false
	}
	return o.token.Present()
}

type testServiceSource struct {
	mu                sync.Mutex
	providerAccountID string
	profileTemplate   string
	buildErr          error
	fetchErr          error
	built             []OptionalToken
}

func newTestServiceSource(providerAccountID string) *testServiceSource {
	return &testServiceSource{
		providerAccountID: providerAccountID,
		profileTemplate:   "https://p.example/profiles/%s",
	}
}

func (s *testServiceSource) BuildServiceOperations(_ context.Context, token OptionalToken) (*testServiceOps, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buildErr != nil {
		return nil, s.buildErr
	}
	s.built = append(s.built, token)
	return &testServiceOps{token: token, accountID: s.providerAccountID}, nil
}

func (s *testServiceSource) FetchProviderAccountID(_ context.Context, ops *testServiceOps) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return "", s.fetchErr
	}
	if ops == nil || !ops.token.Present() {
		return "", fmt.Errorf("provider api rejected an anonymous identity lookup")
	}
	return s.providerAccountID, nil
}

func (s *testServiceSource) ProfileURL(providerAccountID string, _ *testServiceOps) string {
	return fmt.Sprintf(s.profileTemplate, providerAccountID)
}

func (s *testServiceSource) builtTokens() []OptionalToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OptionalToken(nil), s.built...)
}

type fakeOAuthFlow struct {
	mu             sync.Mutex
	requestToken   OAuthToken
	accessToken    OAuthToken
	requestErr     error
	exchangeErr    error
	callbackURLs   []string
	exchangedWith  []AuthorizedRequestToken
	exchangeParams []ProviderParameters
}

func (f *fakeOAuthFlow) FetchRequestToken(_ context.Context, _ ProviderParameters, callbackURL string) (OAuthToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requestErr != nil {
		return OAuthToken{}, f.requestErr
	}
	f.callbackURLs = append(f.callbackURLs, callbackURL)
	return f.requestToken, nil
}

func (f *fakeOAuthFlow) ExchangeAccessToken(_ context.Context, params ProviderParameters, authorized AuthorizedRequestToken) (OAuthToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exchangeErr != nil {
		return OAuthToken{}, f.exchangeErr
	}
	f.exchangedWith = append(f.exchangedWith, authorized)
	f.exchangeParams = append(f.exchangeParams, params)
	return f.accessToken, nil
}

type memoryConnectionRepository struct {
	mu      sync.Mutex
	records map[string]AccountConnection
	failAdd error
}

func newMemoryConnectionRepository() *memoryConnectionRepository {
	return &memoryConnectionRepository{records: map[string]AccountConnection{}}
}

func connectionKey(accountID string, providerName string) string {
	return strings.TrimSpace(accountID) + ":" + strings.TrimSpace(providerName)
}

func (r *memoryConnectionRepository) AddConnection(_ context.Context, input AddConnectionInput) (AccountConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAdd != nil {
		return AccountConnection{}, r.failAdd
	}
	if strings.TrimSpace(input.AccountID) == "" || strings.TrimSpace(input.ProviderName) == "" {
		return AccountConnection{}, fmt.Errorf("account id and provider name are required")
	}
	key := connectionKey(input.AccountID, input.ProviderName)
	now := time.Now().UTC()
	record, exists := r.records[key]
	if !exists {
		record = AccountConnection{
			ID:        uuid.NewString(),
			AccountID: strings.TrimSpace(input.AccountID),
			CreatedAt: now,
		}
	}
	record.ProviderName = strings.TrimSpace(input.ProviderName)
	record.AccessToken = input.AccessToken
	record.ProviderAccountID = strings.TrimSpace(input.ProviderAccountID)
	record.ProfileURL = strings.TrimSpace(input.ProfileURL)
	record.UpdatedAt = now
	r.records[key] = record
	return record, nil
}

func (r *memoryConnectionRepository) IsConnected(_ context.Context, accountID string, providerName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[connectionKey(accountID, providerName)]
	return ok, nil
}

func (r *memoryConnectionRepository) Disconnect(_ context.Context, accountID string, providerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, connectionKey(accountID, providerName))
	return nil
}

func (r *memoryConnectionRepository) GetAccessToken(_ context.Context, accountID string, providerName string) (OAuthToken, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[connectionKey(accountID, providerName)]
	if !ok {
		return OAuthToken{}, false, nil
	}
	return record.AccessToken, true, nil
}

func (r *memoryConnectionRepository) GetAccountConnections(_ context.Context, accountID string, providerName string) ([]AccountConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[connectionKey(accountID, providerName)]
	if !ok {
		return []AccountConnection{}, nil
	}
	return []AccountConnection{record}, nil
}

func (r *memoryConnectionRepository) GetProviderAccountID(_ context.Context, accountID string, providerName string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[connectionKey(accountID, providerName)]
	if !ok {
		return "", false, nil
	}
	return record.ProviderAccountID, true, nil
}

func (r *memoryConnectionRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type staticAccountResolver struct {
	accountID string
	ok        bool
	err       error
}

func (s staticAccountResolver) ResolveAccountID(context.Context) (string, bool, error) {
	return s.accountID, s.ok, s.err
}

type countingTxRunner struct {
	mu    sync.Mutex
	calls int
}

func (r *countingTxRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (r *countingTxRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   map[string]int64
	histograms map[string][]float64
	tags       map[string]map[string]string
}

func newCaptureMetricsRecorder() *captureMetricsRecorder {
	return &captureMetricsRecorder{
		counters:   map[string]int64{},
		histograms: map[string][]float64{},
		tags:       map[string]map[string]string{},
	}
}

func (r *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += value
	r.tags[name] = cloneTags(tags)
}

func (r *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms[name] = append(r.histograms[name], value)
	r.tags[name] = cloneTags(tags)
}

func (r *captureMetricsRecorder) counter(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

func (r *captureMetricsRecorder) tagsFor(name string) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneTags(r.tags[name])
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}

func testProviderParameters() ProviderParameters {
	return ProviderParameters{
		Name:                 "p",
		DisplayName:          "Provider",
		APIKey:               "K",
		Secret:               "S",
		RequestTokenURL:      "https://p.example/oauth/request_token",
		AccessTokenURL:       "https://p.example/oauth/access_token",
		AuthorizeURLTemplate: "https://p.example/auth?token={token}",
	}
}

func newTestProvider(
	source *testServiceSource,
	flow *fakeOAuthFlow,
	repo *memoryConnectionRepository,
	resolver AccountIDResolver,
	extra ...Option,
) (*Provider[*testServiceOps], error) {
	options := []Option{
		WithLogger(stubLogger{}),
		WithOAuthFlow(flow),
		WithConnectionRepository(repo),
	}
	if resolver != nil {
		options = append(options, WithAccountIDResolver(resolver))
	}
	options = append(options, extra...)
	return NewProvider[*testServiceOps](Config{}, testProviderParameters(), source, options...)
}
