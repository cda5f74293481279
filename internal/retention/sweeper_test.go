package retention

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	cutoff  time.Time
	removed int
	err     error
	calls   int
}

func (f *fakePruner) PruneQueriesOlderThan(cutoff time.Time) (int, error) {
	f.calls++
	f.cutoff = cutoff
	return f.removed, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepUsesRetentionCutoff(t *testing.T) {
	pruner := &fakePruner{removed: 3}
	s, err := New(pruner, 30, testLogger())
	require.NoError(t, err)

	before := time.Now().Add(-30 * 24 * time.Hour)
	s.sweep()
	after := time.Now().Add(-30 * 24 * time.Hour)

	assert.Equal(t, 1, pruner.calls)
	assert.False(t, pruner.cutoff.Before(before))
	assert.False(t, pruner.cutoff.After(after))
}

func TestSweepSurvivesPrunerFailure(t *testing.T) {
	pruner := &fakePruner{err: errors.New("disk gone")}
	s, err := New(pruner, 7, testLogger())
	require.NoError(t, err)

	s.sweep()
	s.sweep()

	assert.Equal(t, 2, pruner.calls)
}

func TestStartStop(t *testing.T) {
	s, err := New(&fakePruner{}, 7, testLogger())
	require.NoError(t, err)

	s.Start()
	s.Stop()
}
