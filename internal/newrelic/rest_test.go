package newrelic

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApplicationsList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/applications.json", r.URL.Path)
		assert.Equal(t, "NRRA-key", r.Header.Get("X-Api-Key"))
		fmt.Fprint(w, `{"applications":[
			{"id":1,"name":"web","language":"ruby","health_status":"green","last_reported_at":"2019-10-01T00:00:00+00:00"},
			{"id":2,"name":"api","language":"go","health_status":"red"}
		]}`)
	}))
	defer server.Close()

	client := NewRestClient(server.URL, "NRRA-key", discardLogger(), nil)
	apps, err := client.ApplicationsList(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, int64(1), apps[0].ID)
	assert.Equal(t, "web", apps[0].Name)
	assert.Equal(t, "ruby", apps[0].Language)
	assert.Equal(t, "2019-10-01T00:00:00+00:00", apps[0].LastReportedAt)
	assert.Empty(t, apps[1].LastReportedAt)
}

func TestApplicationHostsList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/applications/42/hosts.json", r.URL.Path)
		fmt.Fprint(w, `{"application_hosts":[{"id":7,"host":"web-1.example.com","health_status":"gray"}]}`)
	}))
	defer server.Close()

	client := NewRestClient(server.URL, "NRRA-key", discardLogger(), nil)
	hosts, err := client.ApplicationHostsList(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, hosts, 1)
	assert.Equal(t, "web-1.example.com", hosts[0].Host)
	assert.Equal(t, "gray", hosts[0].HealthStatus)
}

func TestAlertsViolationsListFiltersAndCaps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alerts_violations.json", r.URL.Path)
		fmt.Fprint(w, `{"violations":[`)
		// One violation for another application and one for another entity
		// type, both to be filtered out.
		fmt.Fprint(w, `{"id":900,"priority":"critical","label":"other app","opened_at":1,"entity":{"type":"Application","id":99}},`)
		fmt.Fprint(w, `{"id":901,"priority":"critical","label":"a host","opened_at":1,"entity":{"type":"Host","id":42}}`)
		for i := 0; i < 12; i++ {
			fmt.Fprintf(w, `,{"id":%d,"priority":"warning","label":"cpu %d","opened_at":1569887400000,"entity":{"type":"Application","id":42}}`, i, i)
		}
		fmt.Fprint(w, `]}`)
	}))
	defer server.Close()

	client := NewRestClient(server.URL, "NRRA-key", discardLogger(), nil)
	violations, err := client.AlertsViolationsList(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, violations, 10)
	for _, v := range violations {
		assert.Equal(t, int64(42), v.Entity.ID)
		assert.Equal(t, "Application", v.Entity.Type)
	}
	assert.Equal(t, "cpu 0", violations[0].Label)
}

func TestRestClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewRestClient(server.URL, "bad-key", discardLogger(), nil)
	_, err := client.ApplicationsList(context.Background())
	assert.Error(t, err)
}

func TestRestClientConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewRestClient(server.URL, "NRRA-key", discardLogger(), nil)
	_, err := client.ApplicationsList(context.Background())
	assert.Error(t, err)
}
