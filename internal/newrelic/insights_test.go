package newrelic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryDecodesEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/1234567/query", r.URL.Path)
		assert.Equal(t, "NRIQ-key", r.Header.Get("X-Query-Key"))
		assert.Equal(t, "SELECT name FROM Transaction", r.URL.Query().Get("nrql"))
		fmt.Fprint(w, `{"results":[{"events":[
			{"name":"checkout","host":"web-1","duration":1.25,"ok":true,"error":null},
			{"name":"login","host":"web-2","duration":2}
		]}]}`)
	}))
	defer server.Close()

	client := NewInsightsClient(server.URL, "1234567", "NRIQ-key", discardLogger(), nil)
	result, err := client.Query(context.Background(), "SELECT name FROM Transaction")
	require.NoError(t, err)
	require.Equal(t, KindEvents, result.Kind)
	require.Len(t, result.Events, 2)

	first := result.Events[0]
	require.Len(t, first, 5)
	// Field order must follow the JSON document, not Go map iteration.
	assert.Equal(t, "name", first[0].Key)
	assert.Equal(t, "host", first[1].Key)
	assert.Equal(t, "duration", first[2].Key)
	assert.Equal(t, json.Number("1.25"), first[2].Value)
	assert.Equal(t, true, first[3].Value)
	assert.Nil(t, first[4].Value)
	assert.Equal(t, json.Number("2"), result.Events[1][2].Value)
}

func TestQueryDecodesEmptyEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"events":[]}]}`)
	}))
	defer server.Close()

	client := NewInsightsClient(server.URL, "1234567", "NRIQ-key", discardLogger(), nil)
	result, err := client.Query(context.Background(), "SELECT * FROM Nothing")
	require.NoError(t, err)
	assert.Equal(t, KindEvents, result.Kind)
	assert.Empty(t, result.Events)
}

func TestQueryDecodesAggregate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"max":1771.5,"count":42}]}`)
	}))
	defer server.Close()

	client := NewInsightsClient(server.URL, "1234567", "NRIQ-key", discardLogger(), nil)
	result, err := client.Query(context.Background(), "SELECT max(duration) FROM Transaction")
	require.NoError(t, err)
	require.Equal(t, KindAggregate, result.Kind)
	require.Len(t, result.Aggregate, 2)
	assert.Equal(t, "max", result.Aggregate[0].Key)
	assert.Equal(t, json.Number("1771.5"), result.Aggregate[0].Value)
	assert.Equal(t, "count", result.Aggregate[1].Key)
}

func TestQueryErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewInsightsClient(server.URL, "1234567", "bad-key", discardLogger(), nil)
	_, err := client.Query(context.Background(), "SELECT 1")
	assert.Error(t, err)
}

func TestDecodeQueryResultEmpty(t *testing.T) {
	_, err := decodeQueryResult(nil)
	assert.Error(t, err)
}

func TestDecodeOrderedObjectRejectsArrays(t *testing.T) {
	_, err := decodeOrderedObject([]byte(`[1,2]`))
	assert.Error(t, err)
}
