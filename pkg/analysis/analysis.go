// Package analysis builds the JSON documents published for every score
// update.
package analysis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/blackswanwtf/blackswan-oracle/pkg/scores"
)

// Document types.
const (
	TypeBlackSwan  = "blackswan-analysis"
	TypeMarketPeak = "marketpeak-analysis"
)

// Version is the document format version.
const Version = "1.0"

// Reserved document fields, metadata can't override them.
const (
	fieldType        = "type"
	fieldVersion     = "version"
	fieldGeneratedAt = "generatedAt"
	fieldScore       = "score"
	fieldDataSource  = "dataSource"
)

// Document is a published analysis snapshot.
type Document struct {
	Type        string
	Version     string
	GeneratedAt time.Time
	Score       int64
	// Metadata holds type-specific fields, they're stored at the top level
	// of the document.
	Metadata   map[string]any
	DataSource string
}

// New creates a document of the given type from the upstream analysis.
func New(typ string, a scores.Analysis, dataSource string, now time.Time) *Document {
	return &Document{
		Type:        typ,
		Version:     Version,
		GeneratedAt: now.UTC(),
		Score:       a.Score,
		Metadata:    a.Fields,
		DataSource:  dataSource,
	}
}

// FileName returns object name used when the document is stored.
func (d *Document) FileName() string {
	return fmt.Sprintf("%s-%d.json", d.Type, d.GeneratedAt.Unix())
}

// MarshalJSON implements the json.Marshaler interface. Keys are sorted, so
// equal documents always produce equal bytes.
func (d *Document) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.Metadata)+5)
	for k, v := range d.Metadata {
		m[k] = v
	}
	m[fieldType] = d.Type
	m[fieldVersion] = d.Version
	m[fieldGeneratedAt] = d.GeneratedAt.Format(time.RFC3339Nano)
	m[fieldScore] = d.Score
	m[fieldDataSource] = d.DataSource
	return json.Marshal(m)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (d *Document) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var (
		res Document
		ts  string
	)
	for _, f := range []struct {
		name string
		dst  any
	}{
		{fieldType, &res.Type},
		{fieldVersion, &res.Version},
		{fieldGeneratedAt, &ts},
		{fieldScore, &res.Score},
		{fieldDataSource, &res.DataSource},
	} {
		raw, ok := m[f.name]
		if !ok {
			return fmt.Errorf("missing %q field", f.name)
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return fmt.Errorf("invalid %q field: %w", f.name, err)
		}
		delete(m, f.name)
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return fmt.Errorf("invalid %q field: %w", fieldGeneratedAt, err)
	}
	res.GeneratedAt = t
	if len(m) != 0 {
		res.Metadata = make(map[string]any, len(m))
		for k, raw := range m {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			res.Metadata[k] = v
		}
	}
	*d = res
	return nil
}
