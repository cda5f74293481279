package dashboard

import (
	"context"
	"io"
	"log/slog"

	"relicboard/internal/newrelic"
	"relicboard/internal/slack"
	"relicboard/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory Store for controller and history tests.
type memStore struct {
	settings map[string]*store.Settings
	queries  map[string][]string
	saveErr  error
}

func newMemStore() *memStore {
	return &memStore{
		settings: make(map[string]*store.Settings),
		queries:  make(map[string][]string),
	}
}

func (m *memStore) FindSettings(userID string) (*store.Settings, error) {
	s, ok := m.settings[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *memStore) SaveSettings(settings *store.Settings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *settings
	m.settings[settings.UserID] = &copied
	return nil
}

func (m *memStore) DeleteAll(userID string) error {
	delete(m.settings, userID)
	delete(m.queries, userID)
	return nil
}

func (m *memStore) FindQueries(userID string) ([]string, error) {
	return append([]string{}, m.queries[userID]...), nil
}

func (m *memStore) SaveQueries(userID string, queries []string) error {
	m.queries[userID] = append([]string{}, queries...)
	return nil
}

// fakeRest implements RestAPI with canned data and call counters.
type fakeRest struct {
	apps          []newrelic.Application
	appsErr       error
	hosts         []newrelic.Host
	hostsErr      error
	violations    []newrelic.Violation
	violationsErr error

	appsCalls int
	lastKey   string
}

func (f *fakeRest) ApplicationsList(context.Context) ([]newrelic.Application, error) {
	f.appsCalls++
	return f.apps, f.appsErr
}

func (f *fakeRest) ApplicationHostsList(context.Context, int64) ([]newrelic.Host, error) {
	return f.hosts, f.hostsErr
}

func (f *fakeRest) AlertsViolationsList(context.Context, int64) ([]newrelic.Violation, error) {
	return f.violations, f.violationsErr
}

func (f *fakeRest) factory() RestFactory {
	return func(restAPIKey string) RestAPI {
		f.lastKey = restAPIKey
		return f
	}
}

// fakeInsights implements InsightsAPI and records every query it ran.
type fakeInsights struct {
	result *newrelic.QueryResult
	err    error

	queries       []string
	lastAccountID string
}

func (f *fakeInsights) Query(_ context.Context, nrql string) (*newrelic.QueryResult, error) {
	f.queries = append(f.queries, nrql)
	return f.result, f.err
}

func (f *fakeInsights) factory() InsightsFactory {
	return func(accountID, queryAPIKey string) InsightsAPI {
		f.lastAccountID = accountID
		return f
	}
}

// fakeSender records every view delivery instead of calling Slack.
type fakeSender struct {
	published map[string]*slack.View
	opened    map[string]*slack.View
	updated   map[string]*slack.View
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		published: make(map[string]*slack.View),
		opened:    make(map[string]*slack.View),
		updated:   make(map[string]*slack.View),
	}
}

func (f *fakeSender) ViewsPublish(_ context.Context, userID string, view *slack.View) error {
	f.published[userID] = view
	return nil
}

func (f *fakeSender) ViewsOpen(_ context.Context, triggerID string, view *slack.View) error {
	f.opened[triggerID] = view
	return nil
}

func (f *fakeSender) ViewsUpdate(_ context.Context, viewID string, view *slack.View) error {
	f.updated[viewID] = view
	return nil
}

const (
	validRestKey  = "NRRA-aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" // 42 word chars
	validQueryKey = "NRIQ-bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"           // 32 word chars
)

func configuredSettings(userID string) *store.Settings {
	return &store.Settings{
		UserID:      userID,
		AccountID:   "1234567",
		RestAPIKey:  validRestKey,
		QueryAPIKey: validQueryKey,
	}
}
