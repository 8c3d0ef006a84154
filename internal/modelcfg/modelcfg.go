// Package modelcfg loads the TOML model descriptor: which feeds exist and
// how to read them, which attribute subsets each dimension hashes, how
// movements are classified, and the run policies.
package modelcfg

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/groblegark/hrmart/internal/model"
)

// Model is the full descriptor for one datamart build.
type Model struct {
	TieBreakPolicy string   `toml:"tie_break_policy"`
	FKTolerance    float64  `toml:"fk_tolerance"`
	ActionField    string   `toml:"action_field"`
	Snapshot       Snapshot `toml:"snapshot"`
	Movement       Movement `toml:"movement"`

	Feeds      []Feed      `toml:"feed"`
	Dimensions []Dimension `toml:"dimension"`
}

// Snapshot configures the restatement grid.
type Snapshot struct {
	TrailingMonths int `toml:"trailing_months"`
}

// Movement configures transition classification.
type Movement struct {
	PromotionFields []string `toml:"promotion_fields"`
	TransferFields  []string `toml:"transfer_fields"`
	// Values of the action field that open and close lifecycles.
	TerminationActions []string `toml:"termination_actions"`
	RehireActions      []string `toml:"rehire_actions"`
	// Numeric attribute fields carried onto each movement fact as
	// measures (pay rate, standard hours). Non-numeric values are
	// dropped from the row, not raised.
	MeasureFields []string `toml:"measure_fields"`
}

// Feed declares one source feed and its schema.
type Feed struct {
	ID             string   `toml:"id"`
	Path           string   `toml:"path"`
	Format         string   `toml:"format"` // csv, jsonl, xlsx
	BusinessKey    string   `toml:"business_key"`
	EffectiveDate  string   `toml:"effective_date"`
	EntryTimestamp string   `toml:"entry_timestamp"`
	Sequence       string   `toml:"sequence"`
	Attributes     []string `toml:"attributes"`
}

// Schema converts the feed declaration to the normalizer's descriptor.
func (f Feed) Schema() model.FeedSchema {
	return model.FeedSchema{
		Feed:                model.FeedID(f.ID),
		BusinessKeyField:    f.BusinessKey,
		EffectiveDateField:  f.EffectiveDate,
		EntryTimestampField: f.EntryTimestamp,
		SequenceField:       f.Sequence,
		AttributeFields:     f.Attributes,
	}
}

// Dimension declares one target dimension and its tracked attribute subset.
type Dimension struct {
	Name    string   `toml:"name"`
	Tracked []string `toml:"tracked"`
}

// Defaults applied when the descriptor omits optional settings.
const (
	DefaultFKTolerance    = 0.01
	DefaultTrailingMonths = 12
	DefaultActionField    = "action"
)

// Load reads and validates a model descriptor file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model descriptor: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a model descriptor.
func Parse(data []byte) (*Model, error) {
	var m Model
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model descriptor: %w", err)
	}

	if m.TieBreakPolicy == "" {
		return nil, fmt.Errorf("model descriptor: tie_break_policy is required")
	}
	if m.FKTolerance == 0 {
		m.FKTolerance = DefaultFKTolerance
	}
	if m.FKTolerance < 0 || m.FKTolerance > 1 {
		return nil, fmt.Errorf("model descriptor: fk_tolerance %v out of range [0, 1]", m.FKTolerance)
	}
	if m.ActionField == "" {
		m.ActionField = DefaultActionField
	}
	if m.Snapshot.TrailingMonths == 0 {
		m.Snapshot.TrailingMonths = DefaultTrailingMonths
	}

	if len(m.Feeds) == 0 {
		return nil, fmt.Errorf("model descriptor: at least one feed is required")
	}
	seen := make(map[string]bool)
	for i, f := range m.Feeds {
		if f.ID == "" {
			return nil, fmt.Errorf("model descriptor: feed %d has no id", i)
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("model descriptor: duplicate feed %s", f.ID)
		}
		seen[f.ID] = true
		if f.Path == "" {
			return nil, fmt.Errorf("model descriptor: feed %s has no path", f.ID)
		}
		switch f.Format {
		case "csv", "jsonl", "xlsx":
		default:
			return nil, fmt.Errorf("model descriptor: feed %s has unsupported format %q", f.ID, f.Format)
		}
		if f.BusinessKey == "" || f.EffectiveDate == "" {
			return nil, fmt.Errorf("model descriptor: feed %s must name business_key and effective_date fields", f.ID)
		}
	}

	if len(m.Dimensions) == 0 {
		return nil, fmt.Errorf("model descriptor: at least one dimension is required")
	}
	for _, d := range m.Dimensions {
		if d.Name == "" || len(d.Tracked) == 0 {
			return nil, fmt.Errorf("model descriptor: dimension %q must have a name and tracked fields", d.Name)
		}
	}

	return &m, nil
}

// DimensionNames returns the declared dimension names in order.
func (m *Model) DimensionNames() []string {
	names := make([]string, len(m.Dimensions))
	for i, d := range m.Dimensions {
		names[i] = d.Name
	}
	return names
}
