package dashboard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relicboard/internal/store"
)

func TestRecordInsertsAtFront(t *testing.T) {
	s := newMemStore()
	h := NewHistory(s)

	require.NoError(t, h.Record("U1", "SELECT 1"))
	require.NoError(t, h.Record("U1", "SELECT 2"))

	queries, err := h.List("U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 2", "SELECT 1"}, queries)
}

func TestRecordDeduplicatesExactString(t *testing.T) {
	s := newMemStore()
	h := NewHistory(s)

	require.NoError(t, h.Record("U1", "SELECT 1"))
	require.NoError(t, h.Record("U1", "SELECT 2"))
	require.NoError(t, h.Record("U1", "SELECT 1"))

	queries, err := h.List("U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, queries)
}

func TestRecordIsIdempotentForHeadQuery(t *testing.T) {
	s := newMemStore()
	h := NewHistory(s)

	require.NoError(t, h.Record("U1", "SELECT 1"))
	require.NoError(t, h.Record("U1", "SELECT 1"))

	queries, err := h.List("U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1"}, queries)
}

func TestRecordKeepsWhitespaceVariantsDistinct(t *testing.T) {
	s := newMemStore()
	h := NewHistory(s)

	require.NoError(t, h.Record("U1", "SELECT 1"))
	require.NoError(t, h.Record("U1", "SELECT  1"))

	queries, err := h.List("U1")
	require.NoError(t, err)
	assert.Len(t, queries, 2)
}

func TestRecordCapsAtOneHundred(t *testing.T) {
	s := newMemStore()
	h := NewHistory(s)

	for i := 0; i < 150; i++ {
		require.NoError(t, h.Record("U1", fmt.Sprintf("SELECT %d", i)))
	}

	queries, err := h.List("U1")
	require.NoError(t, err)
	require.Len(t, queries, 100)
	assert.Equal(t, "SELECT 149", queries[0])
	assert.Equal(t, "SELECT 50", queries[99])
}

func TestListEmptyHistory(t *testing.T) {
	h := NewHistory(newMemStore())

	queries, err := h.List("nobody")
	require.NoError(t, err)
	assert.Empty(t, queries)
}

func TestBuildQueryPrefersGivenQuery(t *testing.T) {
	got := BuildQuery("SELECT count(*) FROM PageView", configuredSettings("U1"))
	assert.Equal(t, "SELECT count(*) FROM PageView", got)
}

func TestBuildQueryScopesDefaultToApplication(t *testing.T) {
	settings := configuredSettings("U1")
	settings.DefaultApplicationID = "12345"

	got := BuildQuery("", settings)
	assert.Equal(t, "SELECT name, host, duration, timestamp FROM Transaction SINCE 30 MINUTES AGO WHERE appId = 12345", got)
}

func TestBuildQueryFallsBackToDefault(t *testing.T) {
	assert.Equal(t,
		"SELECT name, host, duration, timestamp FROM Transaction SINCE 30 MINUTES AGO",
		BuildQuery("", nil))
	assert.Equal(t,
		"SELECT name, host, duration, timestamp FROM Transaction SINCE 30 MINUTES AGO",
		BuildQuery("", &store.Settings{UserID: "U1"}))
}
