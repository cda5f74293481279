package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNotFound is returned when a user has no stored settings. Absence of a
// settings record is the canonical "not configured" state, not a failure.
var ErrNotFound = errors.New("settings not found")

// maxQueries is the hard cap on stored query history per user. Slack static
// select / radio controls accept at most 100 options, so storing more is
// pointless.
const maxQueries = 100

// Settings holds one user's New Relic credentials and preferences. The JSON
// field names are the storage format; existing data files depend on them.
type Settings struct {
	UserID               string `json:"slackUserId"`
	AccountID            string `json:"accountId"`
	RestAPIKey           string `json:"restApiKey"`
	QueryAPIKey          string `json:"queryApiKey"`
	DefaultApplicationID string `json:"defaultApplicationId,omitempty"`
}

// FileStore persists per-user settings and query history as JSON files:
// {base}/settings/{userID}.json and {base}/queries/{userID}.json.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	for _, dir := range []string{baseDir, filepath.Join(baseDir, "settings"), filepath.Join(baseDir, "queries")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir %s: %w", dir, err)
		}
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) settingsPath(userID string) string {
	return filepath.Join(s.baseDir, "settings", userID+".json")
}

func (s *FileStore) queriesPath(userID string) string {
	return filepath.Join(s.baseDir, "queries", userID+".json")
}

// FindSettings loads a user's settings, or ErrNotFound when the user has
// never completed setup.
func (s *FileStore) FindSettings(userID string) (*Settings, error) {
	data, err := os.ReadFile(s.settingsPath(userID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read settings for %s: %w", userID, err)
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("decode settings for %s: %w", userID, err)
	}
	return &settings, nil
}

// SaveSettings overwrites the user's settings record.
func (s *FileStore) SaveSettings(settings *Settings) error {
	if settings.UserID == "" {
		return errors.New("settings user id is empty")
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings for %s: %w", settings.UserID, err)
	}
	return writeAtomic(s.settingsPath(settings.UserID), data)
}

// DeleteAll removes the user's settings and query history together. Missing
// files are not an error so the operation is safe to repeat.
func (s *FileStore) DeleteAll(userID string) error {
	for _, path := range []string{s.settingsPath(userID), s.queriesPath(userID)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", path, err)
		}
	}
	return nil
}

// FindQueries returns the user's stored queries, most recent first. A user
// with no history gets an empty slice. The result is capped at maxQueries
// even if an older file holds more.
func (s *FileStore) FindQueries(userID string) ([]string, error) {
	data, err := os.ReadFile(s.queriesPath(userID))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read queries for %s: %w", userID, err)
	}
	var queries []string
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("decode queries for %s: %w", userID, err)
	}
	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	return queries, nil
}

// SaveQueries overwrites the user's query history.
func (s *FileStore) SaveQueries(userID string, queries []string) error {
	data, err := json.Marshal(queries)
	if err != nil {
		return fmt.Errorf("encode queries for %s: %w", userID, err)
	}
	return writeAtomic(s.queriesPath(userID), data)
}

// PruneQueriesOlderThan deletes query-history files not modified since the
// cutoff and reports how many were removed. Settings files are never touched.
func (s *FileStore) PruneQueriesOlderThan(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "queries"))
	if err != nil {
		return 0, fmt.Errorf("list queries dir: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.baseDir, "queries", entry.Name())
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("prune %s: %w", path, err)
			}
			removed++
		}
	}
	return removed, nil
}

// writeAtomic writes via a temp file and rename so readers never observe a
// partially written record.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
