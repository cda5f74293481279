package retention

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner is the store-side hook the sweeper calls. *store.FileStore
// satisfies it.
type Pruner interface {
	PruneQueriesOlderThan(cutoff time.Time) (int, error)
}

// Sweeper deletes query-history records that nobody has touched for the
// configured number of days. Settings are never swept; credentials only go
// away when the user clears them.
type Sweeper struct {
	pruner Pruner
	maxAge time.Duration
	cron   *cron.Cron
	logger *slog.Logger
}

// New returns a sweeper running once a day. retentionDays must be positive;
// the caller skips construction entirely when retention is disabled.
func New(pruner Pruner, retentionDays int, logger *slog.Logger) (*Sweeper, error) {
	s := &Sweeper{
		pruner: pruner,
		maxAge: time.Duration(retentionDays) * 24 * time.Hour,
		cron:   cron.New(),
		logger: logger,
	}
	if _, err := s.cron.AddFunc("@daily", s.sweep); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) sweep() {
	cutoff := time.Now().Add(-s.maxAge)
	removed, err := s.pruner.PruneQueriesOlderThan(cutoff)
	if err != nil {
		s.logger.Error("query history sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("swept stale query history", "removed", removed)
	}
}
