package newrelic

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ResultKind discriminates the two shapes the Insights query API returns:
// a single group holding raw events, or one or more aggregate rows.
type ResultKind int

const (
	// KindEvents means the query returned raw events (e.g. "SELECT x FROM y").
	KindEvents ResultKind = iota
	// KindAggregate means the query returned scalar/aggregate rows
	// (e.g. "SELECT max(duration) FROM y").
	KindAggregate
)

// Field is one key/value pair of a result row. Values keep their JSON
// representation: json.Number for numbers, string, bool, or nil.
type Field struct {
	Key   string
	Value any
}

// Row is an ordered sequence of fields. Order matters because the dashboard
// renders only the first fields of wide events.
type Row []Field

// QueryResult is the decoded response of an NRQL query, discriminated by
// Kind: Events is set for KindEvents, Aggregate for KindAggregate.
type QueryResult struct {
	Kind      ResultKind
	Events    []Row
	Aggregate Row
}

// decodeQueryResult turns the raw "results" array of an Insights response
// into a QueryResult. The events shape is a single group carrying an
// "events" array; anything else is treated as aggregate rows, of which the
// first is kept.
func decodeQueryResult(results []json.RawMessage) (*QueryResult, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("empty results array")
	}

	if len(results) == 1 {
		var group struct {
			Events []json.RawMessage `json:"events"`
		}
		if err := json.Unmarshal(results[0], &group); err == nil && group.Events != nil {
			rows := make([]Row, 0, len(group.Events))
			for _, raw := range group.Events {
				row, err := decodeOrderedObject(raw)
				if err != nil {
					return nil, fmt.Errorf("decode event: %w", err)
				}
				rows = append(rows, row)
			}
			return &QueryResult{Kind: KindEvents, Events: rows}, nil
		}
	}

	row, err := decodeOrderedObject(results[0])
	if err != nil {
		return nil, fmt.Errorf("decode result row: %w", err)
	}
	return &QueryResult{Kind: KindAggregate, Aggregate: row}, nil
}

// decodeOrderedObject decodes a JSON object preserving the order of its
// keys, which encoding/json maps throw away.
func decodeOrderedObject(data []byte) (Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var row Row
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		row = append(row, Field{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return row, nil
}
