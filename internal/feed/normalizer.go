// Package feed reads raw change records from source feeds and normalizes
// them into canonical ChangeEvents.
package feed

import (
	"strconv"
	"strings"
	"time"

	"github.com/groblegark/hrmart/internal/model"
)

// timeLayouts are the entry-timestamp formats accepted from source feeds.
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Normalize converts one raw record into a ChangeEvent using the feed's
// schema descriptor. It is purely functional; a record missing or failing to
// parse its business key or effective date yields a MalformedRecordError.
func Normalize(rec model.RawRecord, schema model.FeedSchema) (model.ChangeEvent, error) {
	key := strings.TrimSpace(rec.Fields[schema.BusinessKeyField])
	if key == "" {
		return model.ChangeEvent{}, &model.MalformedRecordError{
			Feed: rec.Feed, Line: rec.Line,
			Reason: "missing " + schema.BusinessKeyField,
		}
	}

	rawDate := strings.TrimSpace(rec.Fields[schema.EffectiveDateField])
	if rawDate == "" {
		return model.ChangeEvent{}, &model.MalformedRecordError{
			Feed: rec.Feed, Line: rec.Line,
			Reason: "missing " + schema.EffectiveDateField,
		}
	}
	effective, err := model.ParseDate(rawDate)
	if err != nil {
		return model.ChangeEvent{}, &model.MalformedRecordError{
			Feed: rec.Feed, Line: rec.Line,
			Reason: "unparsable " + schema.EffectiveDateField + " " + strconv.Quote(rawDate),
		}
	}

	entry, err := parseTimestamp(rec.Fields[schema.EntryTimestampField])
	if err != nil {
		return model.ChangeEvent{}, &model.MalformedRecordError{
			Feed: rec.Feed, Line: rec.Line,
			Reason: "unparsable " + schema.EntryTimestampField,
		}
	}
	// A feed without entry timestamps falls back to the effective date, so
	// tie-breaking degrades to sequence numbers alone.
	if entry.IsZero() {
		entry = effective.Time()
	}

	ev := model.ChangeEvent{
		Feed:           rec.Feed,
		BusinessKey:    key,
		EffectiveDate:  effective,
		EntryTimestamp: entry,
		Attributes:     make(map[string]string, len(schema.AttributeFields)),
	}

	if raw := strings.TrimSpace(rec.Fields[schema.SequenceField]); raw != "" {
		seq, err := strconv.Atoi(raw)
		if err != nil {
			return model.ChangeEvent{}, &model.MalformedRecordError{
				Feed: rec.Feed, Line: rec.Line,
				Reason: "unparsable " + schema.SequenceField + " " + strconv.Quote(raw),
			}
		}
		ev.SequenceNumber = seq
		ev.HasSequence = true
	}

	for _, f := range schema.AttributeFields {
		if v, ok := rec.Fields[f]; ok {
			ev.Attributes[f] = strings.TrimSpace(v)
		}
	}
	return ev, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
