package model

import "time"

// FeedID identifies a source change feed (e.g. "INT0095E" for worker job
// assignments). Feed ids are declared in the model descriptor, so any
// non-empty value is accepted.
type FeedID string

// String returns the string representation of the feed id.
func (f FeedID) String() string {
	return string(f)
}

// IsValid reports whether the feed id is non-empty.
func (f FeedID) IsValid() bool {
	return f != ""
}

// RawRecord is one unparsed row from a source feed, keyed by field name.
// Line is the 1-based position within the feed file, used in diagnostics.
type RawRecord struct {
	Feed   FeedID
	Line   int
	Fields map[string]string
}

// FeedSchema describes how to read ChangeEvents out of one feed's raw
// records: which fields carry the key, the dates and the tiebreaker, and
// which fields make up the attribute payload.
type FeedSchema struct {
	Feed                FeedID
	BusinessKeyField    string
	EffectiveDateField  string
	EntryTimestampField string
	SequenceField       string
	AttributeFields     []string
}

// ChangeEvent is one normalized submission from a feed: the business key it
// concerns, the date the change is true in the business, when the source
// recorded it, and the attribute payload. Immutable once produced by the
// normalizer.
type ChangeEvent struct {
	Feed           FeedID            `json:"feed"`
	BusinessKey    string            `json:"business_key"`
	EffectiveDate  Date              `json:"effective_date"`
	EntryTimestamp time.Time         `json:"entry_timestamp"`
	SequenceNumber int               `json:"sequence_number"`
	HasSequence    bool              `json:"has_sequence"`
	Attributes     map[string]string `json:"attributes"`
}

// Attr returns the named attribute value, or "" when absent.
func (e ChangeEvent) Attr(name string) string {
	return e.Attributes[name]
}
