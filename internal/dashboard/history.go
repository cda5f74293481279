package dashboard

import (
	"relicboard/internal/store"
)

// maxHistory caps stored query history; Slack option lists max out at 100.
const maxHistory = 100

// defaultQueryBase is shown to users who have never run a query.
const defaultQueryBase = "SELECT name, host, duration, timestamp FROM Transaction SINCE 30 MINUTES AGO"

// Store is the persistence collaborator, keyed by Slack user id.
type Store interface {
	FindSettings(userID string) (*store.Settings, error)
	SaveSettings(settings *store.Settings) error
	DeleteAll(userID string) error
	FindQueries(userID string) ([]string, error)
	SaveQueries(userID string, queries []string) error
}

// History maintains each user's ordered, deduplicated query history.
type History struct {
	store Store
}

func NewHistory(s Store) *History {
	return &History{store: s}
}

// Record pushes a query to the front of the user's history. Duplicates of
// the exact same string are removed (the fresh entry wins) and the list is
// truncated to maxHistory before persisting. Recording the head query again
// is a no-op on order.
func (h *History) Record(userID, query string) error {
	queries, err := h.store.FindQueries(userID)
	if err != nil {
		return err
	}

	updated := make([]string, 0, len(queries)+1)
	updated = append(updated, query)
	for _, q := range queries {
		if q == query {
			continue
		}
		updated = append(updated, q)
	}
	if len(updated) > maxHistory {
		updated = updated[:maxHistory]
	}

	return h.store.SaveQueries(userID, updated)
}

// List returns the user's queries, most recent first. Users with no history
// get an empty slice.
func (h *History) List(userID string) ([]string, error) {
	return h.store.FindQueries(userID)
}

// BuildQuery decides what query the runner modal shows: the explicitly
// given query if any, otherwise a default scoped to the user's selected
// application.
func BuildQuery(given string, settings *store.Settings) string {
	if given != "" {
		return given
	}
	if settings != nil && settings.DefaultApplicationID != "" {
		return defaultQueryBase + " WHERE appId = " + settings.DefaultApplicationID
	}
	return defaultQueryBase
}
