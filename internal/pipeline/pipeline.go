// Package pipeline orchestrates a full datamart run: feed ingestion,
// per-entity timeline resolution, temporal join, lifecycle application,
// SCD2 dimension loading, fact building and headcount restatement.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/groblegark/hrmart/internal/events"
	"github.com/groblegark/hrmart/internal/fact"
	"github.com/groblegark/hrmart/internal/feed"
	"github.com/groblegark/hrmart/internal/lifecycle"
	"github.com/groblegark/hrmart/internal/model"
	"github.com/groblegark/hrmart/internal/modelcfg"
	"github.com/groblegark/hrmart/internal/restate"
	"github.com/groblegark/hrmart/internal/scd"
	"github.com/groblegark/hrmart/internal/store"
	"github.com/groblegark/hrmart/internal/temporal"
	"github.com/groblegark/hrmart/internal/timeline"
)

// Options configures one pipeline run.
type Options struct {
	Model     *modelcfg.Model
	Source    feed.Source
	Store     store.Store
	Publisher events.Publisher
	Logger    *slog.Logger

	RunID   string
	BatchID string
	Workers int

	// AsOf anchors the trailing snapshot grid. Zero means today (UTC).
	AsOf model.Date
}

// Pipeline runs the datamart build.
type Pipeline struct {
	opts Options
}

func New(opts Options) *Pipeline {
	if opts.Publisher == nil {
		opts.Publisher = &events.NoopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.AsOf.IsZero() {
		opts.AsOf = model.DateOf(time.Now().UTC())
	}
	return &Pipeline{opts: opts}
}

// entity is one business key's resolved state after join and lifecycle.
type entity struct {
	key     string
	unified model.UnifiedTimeline
	outcome lifecycle.Outcome
}

// Run executes the full build and returns the run report. The report is
// persisted and published even when the run is blocked; the error then
// carries the blocking cause.
func (p *Pipeline) Run(ctx context.Context) (*model.RunReport, error) {
	report := p.newReport()

	feedIDs := make([]string, len(p.opts.Model.Feeds))
	for i, f := range p.opts.Model.Feeds {
		feedIDs[i] = f.ID
	}
	p.publish(ctx, events.TopicRunStarted, events.RunStarted{
		RunID:   p.opts.RunID,
		BatchID: p.opts.BatchID,
		Feeds:   feedIDs,
	})

	changes, malformed, err := p.ingest(ctx)
	if err != nil {
		return p.block(ctx, report, fmt.Errorf("ingest: %w", err))
	}
	report.MalformedRecords = malformed

	entities, ambiguous, invalidRescinds := p.resolve(changes)
	report.AmbiguousTiebreaks = ambiguous
	report.InvalidRescinds = invalidRescinds
	report.Entities = len(entities)

	dimRows, err := p.loadDimensions(ctx, entities)
	if err != nil {
		return p.block(ctx, report, fmt.Errorf("load dimensions: %w", err))
	}
	report.Dimensions = dimRows

	index, err := p.buildIndex(ctx)
	if err != nil {
		return p.block(ctx, report, fmt.Errorf("build as-of index: %w", err))
	}

	movements, snapshots := p.buildFacts(index, entities)
	report.Movements = len(movements)
	report.Snapshots = len(snapshots)

	countUnresolved(report, movements, snapshots)
	if err := p.checkThreshold(report, len(movements)+len(snapshots)); err != nil {
		return p.block(ctx, report, err)
	}

	if err := p.opts.Store.InsertMovementFacts(ctx, movements); err != nil {
		return p.block(ctx, report, fmt.Errorf("insert movement facts: %w", err))
	}
	if err := p.opts.Store.ReplaceSnapshotFacts(ctx, snapshots); err != nil {
		return p.block(ctx, report, fmt.Errorf("replace snapshot facts: %w", err))
	}

	if err := p.auditOverlaps(ctx, report); err != nil {
		return p.block(ctx, report, err)
	}

	p.finish(report)
	if err := p.opts.Store.SaveRunReport(ctx, report); err != nil {
		return report, fmt.Errorf("save run report: %w", err)
	}
	p.publish(ctx, events.TopicRunCompleted, events.RunCompleted{Report: report})
	if report.Degraded() {
		p.publish(ctx, events.TopicQualityAlert, events.QualityAlert{
			RunID:              report.RunID,
			MalformedRecords:   report.MalformedRecords,
			AmbiguousTiebreaks: report.AmbiguousTiebreaks,
			InvalidRescinds:    report.InvalidRescinds,
			UnresolvedFKs:      report.UnresolvedFKs,
		})
	}
	return report, nil
}

// RunSnapshots re-runs only the headcount restatement against the dimension
// versions already in the warehouse: feeds are re-read and re-resolved to
// rebuild timelines, but no dimension rows are written.
func (p *Pipeline) RunSnapshots(ctx context.Context) (*model.RunReport, error) {
	report := p.newReport()

	changes, malformed, err := p.ingest(ctx)
	if err != nil {
		return p.block(ctx, report, fmt.Errorf("ingest: %w", err))
	}
	report.MalformedRecords = malformed

	entities, ambiguous, invalidRescinds := p.resolve(changes)
	report.AmbiguousTiebreaks = ambiguous
	report.InvalidRescinds = invalidRescinds
	report.Entities = len(entities)

	index, err := p.buildIndex(ctx)
	if err != nil {
		return p.block(ctx, report, fmt.Errorf("build as-of index: %w", err))
	}

	snapshots := p.buildSnapshots(index, entities)
	report.Snapshots = len(snapshots)

	countUnresolved(report, nil, snapshots)
	if err := p.checkThreshold(report, len(snapshots)); err != nil {
		return p.block(ctx, report, err)
	}

	if err := p.opts.Store.ReplaceSnapshotFacts(ctx, snapshots); err != nil {
		return p.block(ctx, report, fmt.Errorf("replace snapshot facts: %w", err))
	}

	p.finish(report)
	if err := p.opts.Store.SaveRunReport(ctx, report); err != nil {
		return report, fmt.Errorf("save run report: %w", err)
	}
	return report, nil
}

// ValidateFeeds reads and normalizes every configured feed without touching
// the warehouse, returning per-feed record and malformed counts.
func (p *Pipeline) ValidateFeeds(ctx context.Context) (map[string]FeedCheck, error) {
	out := make(map[string]FeedCheck, len(p.opts.Model.Feeds))
	for _, fd := range p.opts.Model.Feeds {
		records, err := p.readFeed(ctx, fd)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", fd.ID, err)
		}
		check := FeedCheck{Records: len(records)}
		schema := fd.Schema()
		for _, rec := range records {
			if _, err := feed.Normalize(rec, schema); err != nil {
				check.Malformed++
			}
		}
		out[fd.ID] = check
	}
	return out, nil
}

// FeedCheck summarizes one feed's validation.
type FeedCheck struct {
	Records   int
	Malformed int
}

func (p *Pipeline) newReport() *model.RunReport {
	return &model.RunReport{
		RunID:          p.opts.RunID,
		TieBreakPolicy: timeline.PolicyID,
		StartedAt:      time.Now().UTC(),
		UnresolvedFKs:  make(map[string]int),
	}
}

func (p *Pipeline) readFeed(ctx context.Context, fd modelcfg.Feed) ([]model.RawRecord, error) {
	rc, err := p.opts.Source.Open(ctx, fd.Path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	id := model.FeedID(fd.ID)
	switch fd.Format {
	case "csv":
		return feed.ReadCSV(rc, id)
	case "jsonl":
		return feed.ReadJSONL(rc, id)
	case "xlsx":
		return feed.ReadXLSX(rc, id)
	default:
		return nil, fmt.Errorf("unknown format %q", fd.Format)
	}
}

// ingest reads every configured feed and normalizes its records. Malformed
// records are counted and skipped; a feed that cannot be opened or decoded
// at all fails the run.
func (p *Pipeline) ingest(ctx context.Context) ([]model.ChangeEvent, int, error) {
	var (
		changes   []model.ChangeEvent
		malformed int
	)
	for _, fd := range p.opts.Model.Feeds {
		records, err := p.readFeed(ctx, fd)
		if err != nil {
			return nil, 0, fmt.Errorf("feed %s: %w", fd.ID, err)
		}
		schema := fd.Schema()
		for _, rec := range records {
			ev, err := feed.Normalize(rec, schema)
			if err != nil {
				malformed++
				p.opts.Logger.Warn("skipping malformed record", "feed", fd.ID, "line", rec.Line, "error", err)
				continue
			}
			changes = append(changes, ev)
		}
		p.opts.Logger.Info("feed ingested", "feed", fd.ID, "records", len(records))
	}
	return changes, malformed, nil
}

// resolve groups changes into per-feed timelines, applies the tie-break
// policy, joins each entity's feeds into a unified timeline and applies its
// lifecycle events. Entities are processed concurrently; failures stay
// isolated to the entity (or entity-feed) that caused them.
func (p *Pipeline) resolve(changes []model.ChangeEvent) ([]entity, int, int) {
	timelines := timeline.Build(changes)

	var (
		ambiguous int
		byKey     = make(map[string][]model.Timeline)
	)
	for _, tl := range timelines {
		resolved, err := timeline.Resolve(tl)
		if err != nil {
			ambiguous++
			p.opts.Logger.Warn("dropping unresolvable entity feed",
				"feed", tl.Feed, "entity", tl.BusinessKey, "error", err)
			continue
		}
		byKey[tl.BusinessKey] = append(byKey[tl.BusinessKey], resolved)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	jobs := make(chan string)
	results := make(chan entity)

	var wg sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				feeds := byKey[key]
				unified := temporal.Join(key, feeds)
				lcEvents := p.lifecycleEvents(feeds)
				applied, outcome := lifecycle.Apply(unified, lcEvents, p.opts.Logger)
				results <- entity{key: key, unified: applied, outcome: outcome}
			}
		}()
	}

	go func() {
		for _, k := range keys {
			jobs <- k
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	entities := make([]entity, 0, len(keys))
	var invalidRescinds int
	for e := range results {
		invalidRescinds += len(e.outcome.InvalidRescinds)
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].key < entities[j].key })

	return entities, ambiguous, invalidRescinds
}

// lifecycleEvents derives termination and rehire events from the action
// field values of an entity's resolved change events.
func (p *Pipeline) lifecycleEvents(feeds []model.Timeline) []lifecycle.Event {
	var out []lifecycle.Event
	for _, tl := range feeds {
		for _, ev := range tl.Events {
			action := ev.Attributes[p.opts.Model.ActionField]
			if action == "" {
				continue
			}
			switch {
			case contains(p.opts.Model.Movement.TerminationActions, action):
				out = append(out, lifecycle.Event{Type: lifecycle.EventTermination, Date: ev.EffectiveDate})
			case contains(p.opts.Model.Movement.RehireActions, action):
				out = append(out, lifecycle.Event{Type: lifecycle.EventRehire, Date: ev.EffectiveDate})
			}
		}
	}
	return out
}

// loadDimensions builds each configured dimension's SCD2 version set per
// entity and swaps it into the store atomically per (dimension, entity).
func (p *Pipeline) loadDimensions(ctx context.Context, entities []entity) (int, error) {
	loadedAt := time.Now().UTC()
	var rows int
	for _, dim := range p.opts.Model.Dimensions {
		builder := &scd.Builder{
			Dimension: dim.Name,
			Tracked:   dim.Tracked,
			BatchID:   p.opts.BatchID,
			LoadedAt:  loadedAt,
		}
		for _, e := range entities {
			records := builder.Build(e.unified)
			if len(records) == 0 {
				continue
			}
			if err := p.opts.Store.ReplaceDimension(ctx, dim.Name, e.key, records); err != nil {
				return 0, fmt.Errorf("dimension %s entity %s: %w", dim.Name, e.key, err)
			}
			rows += len(records)
		}
	}
	return rows, nil
}

// buildIndex reads back every dimension's stored versions, with their
// assigned surrogate keys, into one as-of lookup index.
func (p *Pipeline) buildIndex(ctx context.Context) (*fact.AsOfIndex, error) {
	var all []*model.DimensionRecord
	for _, name := range p.opts.Model.DimensionNames() {
		records, err := p.opts.Store.DimensionRecords(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("dimension %s: %w", name, err)
		}
		all = append(all, records...)
	}
	return fact.NewAsOfIndex(all), nil
}

func (p *Pipeline) buildFacts(index *fact.AsOfIndex, entities []entity) ([]*model.MovementFact, []*model.SnapshotFact) {
	builder := &fact.Builder{
		Index: index,
		Classifier: fact.Classifier{
			PromotionFields: p.opts.Model.Movement.PromotionFields,
			TransferFields:  p.opts.Model.Movement.TransferFields,
		},
		Dimensions: p.opts.Model.DimensionNames(),
		Measures:   p.opts.Model.Movement.MeasureFields,
		BatchID:    p.opts.BatchID,
	}

	var movements []*model.MovementFact
	for _, e := range entities {
		movements = append(movements, builder.Movements(e.unified, e.outcome)...)
	}
	return movements, p.buildSnapshots(index, entities)
}

func (p *Pipeline) buildSnapshots(index *fact.AsOfIndex, entities []entity) []*model.SnapshotFact {
	grid := restate.MonthEnds(p.opts.AsOf, p.opts.Model.Snapshot.TrailingMonths)
	gen := &restate.Generator{
		Index:      index,
		Dimensions: p.opts.Model.DimensionNames(),
		BatchID:    p.opts.BatchID,
	}
	timelines := make([]model.UnifiedTimeline, len(entities))
	for i, e := range entities {
		timelines[i] = e.unified
	}
	return gen.Snapshots(timelines, grid)
}

// countUnresolved tallies per-dimension FK resolution misses into the report.
func countUnresolved(report *model.RunReport, movements []*model.MovementFact, snapshots []*model.SnapshotFact) {
	for _, f := range movements {
		for _, dim := range f.Unresolved {
			report.UnresolvedFKs[dim]++
		}
	}
	for _, f := range snapshots {
		for _, dim := range f.Unresolved {
			report.UnresolvedFKs[dim]++
		}
	}
}

// checkThreshold blocks the run when the aggregate FK miss rate across all
// fact rows exceeds the configured tolerance.
func (p *Pipeline) checkThreshold(report *model.RunReport, factRows int) error {
	total := factRows * len(p.opts.Model.Dimensions)
	if total == 0 {
		return nil
	}
	unresolved := report.TotalUnresolved()
	if rate := float64(unresolved) / float64(total); rate > p.opts.Model.FKTolerance {
		return &model.ThresholdError{
			Unresolved: unresolved,
			Total:      total,
			Tolerance:  p.opts.Model.FKTolerance,
		}
	}
	return nil
}

// auditOverlaps runs the post-load SCD2 overlap check on every dimension.
// Any violation is a hard failure, never auto-corrected.
func (p *Pipeline) auditOverlaps(ctx context.Context, report *model.RunReport) error {
	var violations []model.OverlapViolation
	for _, name := range p.opts.Model.DimensionNames() {
		found, err := p.opts.Store.CheckOverlaps(ctx, name)
		if err != nil {
			return fmt.Errorf("overlap check %s: %w", name, err)
		}
		violations = append(violations, found...)
	}
	report.OverlapViolations = len(violations)
	if len(violations) > 0 {
		return &model.OverlapError{Violations: violations}
	}
	return nil
}

func (p *Pipeline) finish(report *model.RunReport) {
	report.FinishedAt = time.Now().UTC()
	if report.Degraded() {
		report.Status = model.RunDegraded
	} else {
		report.Status = model.RunClean
	}
}

// block finalizes and persists a failed run's report, publishes the failure
// and returns the report alongside the blocking error.
func (p *Pipeline) block(ctx context.Context, report *model.RunReport, cause error) (*model.RunReport, error) {
	report.FinishedAt = time.Now().UTC()
	report.Status = model.RunBlocked
	report.Error = cause.Error()
	if err := p.opts.Store.SaveRunReport(ctx, report); err != nil {
		p.opts.Logger.Error("saving blocked run report", "run", report.RunID, "error", err)
	}
	p.publish(ctx, events.TopicRunFailed, events.RunFailed{RunID: report.RunID, Reason: cause.Error()})
	return report, cause
}

func (p *Pipeline) publish(ctx context.Context, topic string, event any) {
	if err := p.opts.Publisher.Publish(ctx, topic, event); err != nil {
		p.opts.Logger.Warn("publishing event", "topic", topic, "error", err)
	}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
