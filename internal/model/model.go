// Package model defines the canonical records that flow between the
// extractors, the reconciler and the upsert pipeline.
package model

// Player is a registry entry. ID is the datastore's internal identifier;
// ExternalID is the stats.nba.com person id when known.
type Player struct {
	ID               int64
	ExternalID       *int64
	Name             string
	IsActive         bool
	TeamName         string
	TeamAbbreviation string
}

// Fields is a loosely typed bag of source values keyed by source header.
type Fields map[string]any

// Get returns the first present, non-nil value among keys.
func (f Fields) Get(keys ...string) any {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// Section returns a nested object such as ESPN's "2026 Projections".
func (f Fields) Section(key string) Fields {
	switch v := f[key].(type) {
	case map[string]any:
		return Fields(v)
	case Fields:
		return v
	}
	return nil
}

// ExternalRecord is one row from a scraped or third-party source that
// references a player by free-text name.
type ExternalRecord struct {
	Source   string
	Name     string
	Team     string
	Position string
	Fields   Fields
}

// Status is the reconciliation state of an ExternalRecord.
type Status string

const (
	StatusMatched   Status = "matched"
	StatusUnmatched Status = "unmatched"
	StatusSkipped   Status = "skipped"
)

// Method records which lookup produced a match.
type Method string

const (
	MethodExact    Method = "exact"
	MethodLastName Method = "last_name"
)

// MatchResult pairs an ExternalRecord with the registry player it resolved
// to. Player is nil unless Status is StatusMatched.
type MatchResult struct {
	Record     ExternalRecord
	Player     *Player
	Confidence float64
	Method     Method
	Status     Status
	Reason     string
}

// Matched reports whether the record resolved to a player.
func (m MatchResult) Matched() bool {
	return m.Status == StatusMatched && m.Player != nil
}
