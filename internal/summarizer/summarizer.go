// Package summarizer compresses a working set into a short text block
// plus a handful of representative rows, preserving the information
// most likely to matter for the next planner decision.
//
// Summarize is side-effect free and deterministic for a fixed input
// and parameter set: given the same working set, query, and
// Summarizer configuration, it always selects the same samples in the
// same order.
package summarizer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ilkoid/logwright/internal/entitycatalog"
	"github.com/ilkoid/logwright/internal/logmodel"
)

const (
	// DefaultSampleBudget is the number of representative rows included
	// in a summary when the caller does not override it.
	DefaultSampleBudget = 10
	// DefaultImportanceWeight is α in score = α·importance + (1−α)·diversity.
	DefaultImportanceWeight = 0.6

	maxLineLen  = 160
	topKTextual = 5
)

// Summarizer compresses working sets using a fixed Entity Catalog.
type Summarizer struct {
	catalog          *entitycatalog.Catalog
	payloadColumn    string
	sampleBudget     int
	importanceWeight float64
}

// New builds a Summarizer. payloadColumn names the column whose value
// is parsed as the embedded-JSON event payload.
func New(catalog *entitycatalog.Catalog, payloadColumn string, sampleBudget int, importanceWeight float64) *Summarizer {
	if sampleBudget <= 0 {
		sampleBudget = DefaultSampleBudget
	}
	if importanceWeight <= 0 || importanceWeight > 1 {
		importanceWeight = DefaultImportanceWeight
	}
	return &Summarizer{
		catalog:          catalog,
		payloadColumn:    payloadColumn,
		sampleBudget:     sampleBudget,
		importanceWeight: importanceWeight,
	}
}

// Stats is the aggregated numeric view of a working set.
type Stats struct {
	RowCount        int
	SeverityCounts  map[string]int
	TopMessages     []KeyCount
	EarliestTime    *time.Time
	LatestTime      *time.Time
}

// KeyCount is one entry of a ranked frequency table.
type KeyCount struct {
	Key   string
	Count int
}

// Summary is the full output contract of a Summarize call.
type Summary struct {
	SummaryText string
	Entities    map[string][]string // kind -> distinct values observed, capped
	Stats       Stats
	Samples     []logmodel.LogRow
}

type rowInfo struct {
	row          logmodel.LogRow
	index        int
	event        logmodel.ParsedEvent
	entityKinds  map[string]string   // field -> kind, for rows carrying entity fields
	textEntities map[string][]string // kind -> values pulled from the message by regex, for kinds no field named directly
	timeBucket   int                 // 0 earliest third, 1 middle, 2 latest
	importance   float64
}

// Summarize compresses ws into a Summary. query is optional and used
// only to bias nothing structurally (query-aware weighting is left to
// the Context Builder's hint selection); it is accepted for forward
// compatibility with query-aware importance weighting.
func (s *Summarizer) Summarize(ws *logmodel.WorkingSet, query string) Summary {
	infos := s.analyzeRows(ws)
	stats := s.aggregate(infos)
	entities := s.extractEntities(infos)
	samples := s.sample(infos)

	return Summary{
		SummaryText: s.format(stats, entities, samples),
		Entities:    entities,
		Stats:       stats,
		Samples:     samples,
	}
}

func (s *Summarizer) analyzeRows(ws *logmodel.WorkingSet) []*rowInfo {
	infos := make([]*rowInfo, len(ws.Rows))
	for i, row := range ws.Rows {
		payload, _ := row.Get(s.payloadColumn)
		event := logmodel.ParsePayload(payload)
		kinds := make(map[string]string)
		if s.catalog != nil {
			for field := range event.Fields {
				if kind, ok := s.catalog.KindOf(field); ok {
					kinds[field] = kind
				}
			}
		}
		infos[i] = &rowInfo{row: row, index: i, event: event, entityKinds: kinds, textEntities: s.extractTextEntities(event, kinds)}
	}
	s.assignTimeBuckets(infos)
	s.scoreImportance(infos)
	return infos
}

// extractTextEntities applies each configured kind's extraction
// patterns to event's message, skipping any kind already matched by a
// named field in fieldKinds (a direct field match always wins over a
// regex guess against free text).
func (s *Summarizer) extractTextEntities(event logmodel.ParsedEvent, fieldKinds map[string]string) map[string][]string {
	if s.catalog == nil || event.Message == "" {
		return nil
	}

	matched := make(map[string]bool, len(fieldKinds))
	for _, kind := range fieldKinds {
		matched[kind] = true
	}

	var out map[string][]string
	for _, kind := range s.catalog.Kinds() {
		if matched[kind] {
			continue
		}
		for _, re := range s.catalog.Patterns(kind) {
			for _, m := range re.FindAllString(event.Message, -1) {
				if out == nil {
					out = make(map[string][]string)
				}
				out[kind] = append(out[kind], m)
			}
		}
	}
	return out
}

func (s *Summarizer) assignTimeBuckets(infos []*rowInfo) {
	ordered := make([]*rowInfo, 0, len(infos))
	for _, info := range infos {
		if info.event.Timestamp != nil {
			ordered = append(ordered, info)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].event.Timestamp.Before(*ordered[j].event.Timestamp)
	})
	n := len(ordered)
	for i, info := range ordered {
		switch {
		case n <= 1:
			info.timeBucket = 1
		case i < n/3:
			info.timeBucket = 0
		case i >= 2*n/3:
			info.timeBucket = 2
		default:
			info.timeBucket = 1
		}
	}
	// Rows with unparseable timestamps sort to the end conceptually;
	// bucket them with the latest group so they still contribute to
	// "late" coverage rather than being silently dropped from scoring.
	for _, info := range infos {
		if info.event.Timestamp == nil {
			info.timeBucket = 2
		}
	}
}

func (s *Summarizer) scoreImportance(infos []*rowInfo) {
	valueFreq := make(map[string]int)
	for _, info := range infos {
		for field, val := range info.event.Fields {
			if _, isEntity := info.entityKinds[field]; isEntity && val != "" {
				valueFreq[field+"="+val]++
			}
		}
	}

	for _, info := range infos {
		severityScore := float64(logmodel.SeverityRank(info.event.Severity)+1) / 4.0
		if severityScore < 0 {
			severityScore = 0
		}

		rarity := 0.0
		entityCount := 0
		for field, val := range info.event.Fields {
			if _, isEntity := info.entityKinds[field]; isEntity && val != "" {
				entityCount++
				freq := valueFreq[field+"="+val]
				rarity += 1.0 / float64(freq)
			}
		}
		if entityCount > 0 {
			rarity /= float64(entityCount)
		}

		relational := 0.0
		if entityCount >= 2 {
			relational = 1.0
		}

		info.importance = 0.5*severityScore + 0.3*rarity + 0.2*relational
	}
}

func (s *Summarizer) aggregate(infos []*rowInfo) Stats {
	stats := Stats{RowCount: len(infos), SeverityCounts: make(map[string]int)}
	messageFreq := make(map[string]int)

	for _, info := range infos {
		if info.event.Severity != "" {
			stats.SeverityCounts[info.event.Severity]++
		}
		if info.event.Message != "" {
			messageFreq[info.event.Message]++
		}
		if t := info.event.Timestamp; t != nil {
			if stats.EarliestTime == nil || t.Before(*stats.EarliestTime) {
				stats.EarliestTime = t
			}
			if stats.LatestTime == nil || t.After(*stats.LatestTime) {
				stats.LatestTime = t
			}
		}
	}

	stats.TopMessages = topKByCount(messageFreq, topKTextual)
	return stats
}

func (s *Summarizer) extractEntities(infos []*rowInfo) map[string][]string {
	seen := make(map[string]map[string]bool)
	order := make(map[string][]string)

	add := func(kind, val string) {
		if val == "" {
			return
		}
		if seen[kind] == nil {
			seen[kind] = make(map[string]bool)
		}
		if !seen[kind][val] {
			seen[kind][val] = true
			order[kind] = append(order[kind], val)
		}
	}

	for _, info := range infos {
		for field, kind := range info.entityKinds {
			add(kind, info.event.Fields[field])
		}
		for kind, vals := range info.textEntities {
			for _, val := range vals {
				add(kind, val)
			}
		}
	}
	return order
}

// sample selects up to sampleBudget rows by greedy mixed
// importance+diversity scoring, ensuring coverage across severities,
// time buckets, and distinct entity values before packing in the
// remaining highest-importance rows.
func (s *Summarizer) sample(infos []*rowInfo) []logmodel.LogRow {
	budget := s.sampleBudget
	if budget > len(infos) {
		budget = len(infos)
	}
	if budget <= 0 {
		return nil
	}

	remaining := make([]*rowInfo, len(infos))
	copy(remaining, infos)

	coveredBuckets := make(map[string]bool)
	coveredValues := make(map[string]bool)
	var picked []*rowInfo

	for len(picked) < budget && len(remaining) > 0 {
		bestIdx := -1
		bestScore := -1.0
		for i, info := range remaining {
			diversity := diversityGain(info, coveredBuckets, coveredValues)
			score := s.importanceWeight*info.importance + (1-s.importanceWeight)*diversity
			if score > bestScore || (score == bestScore && (bestIdx == -1 || info.index < remaining[bestIdx].index)) {
				bestScore = score
				bestIdx = i
			}
		}

		chosen := remaining[bestIdx]
		picked = append(picked, chosen)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)

		coveredBuckets[bucketKey(chosen)] = true
		for field, val := range chosen.event.Fields {
			if _, isEntity := chosen.entityKinds[field]; isEntity && val != "" {
				coveredValues[field+"="+val] = true
			}
		}
	}

	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })

	out := make([]logmodel.LogRow, len(picked))
	for i, info := range picked {
		out[i] = info.row
	}
	return out
}

func bucketKey(info *rowInfo) string {
	return fmt.Sprintf("%s|%d", info.event.Severity, info.timeBucket)
}

func diversityGain(info *rowInfo, coveredBuckets, coveredValues map[string]bool) float64 {
	gain := 0.0
	if !coveredBuckets[bucketKey(info)] {
		gain += 0.5
	}
	for field, val := range info.event.Fields {
		if _, isEntity := info.entityKinds[field]; isEntity && val != "" && !coveredValues[field+"="+val] {
			gain += 0.5
			break
		}
	}
	return gain
}

func topKByCount(freq map[string]int, k int) []KeyCount {
	out := make([]KeyCount, 0, len(freq))
	for key, count := range freq {
		out = append(out, KeyCount{Key: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func (s *Summarizer) format(stats Stats, entities map[string][]string, samples []logmodel.LogRow) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Rows: %d\n", stats.RowCount)

	if len(stats.SeverityCounts) > 0 {
		b.WriteString("Severities: ")
		first := true
		for _, sev := range []string{logmodel.SeverityError, logmodel.SeverityWarn, logmodel.SeverityInfo, logmodel.SeverityDebug} {
			if count, ok := stats.SeverityCounts[sev]; ok {
				if !first {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%s=%d", sev, count)
				first = false
			}
		}
		b.WriteString("\n")
	}

	if stats.EarliestTime != nil && stats.LatestTime != nil {
		fmt.Fprintf(&b, "Time range: %s to %s\n", stats.EarliestTime.Format(time.RFC3339), stats.LatestTime.Format(time.RFC3339))
	}

	if len(stats.TopMessages) > 0 {
		b.WriteString("Top messages:\n")
		for _, km := range stats.TopMessages {
			fmt.Fprintf(&b, "  %s (%d)\n", truncate(km.Key, maxLineLen), km.Count)
		}
	}

	if len(entities) > 0 {
		b.WriteString("Entities:\n")
		kinds := make([]string, 0, len(entities))
		for kind := range entities {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			values := entities[kind]
			cap := values
			if len(cap) > topKTextual {
				cap = cap[:topKTextual]
			}
			fmt.Fprintf(&b, "  %s: %s (%d distinct)\n", kind, strings.Join(cap, ", "), len(values))
		}
	}

	if len(samples) > 0 {
		b.WriteString("Samples:\n")
		for i, row := range samples {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, truncate(strings.Join(row.Values, " | "), maxLineLen))
		}
	}

	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
