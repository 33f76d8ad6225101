package logtools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ilkoid/logwright/internal/entitycatalog"
	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/logstore"
	"github.com/ilkoid/logwright/pkg/tools"
)

const (
	defaultMaxDepth     = 4
	defaultWalkerBudget = 20
	defaultTopN         = 10
	perHopSearchCap     = 500
)

// frontierItem is one in-flight candidate path during the relationship
// walk: the value currently being searched for, and the chain of hops
// taken to reach it.
type frontierItem struct {
	value string
	hops  []logmodel.RelationshipHop
}

// walkRelationship performs a bounded breadth-first search over the
// log graph, starting from startValue and stopping as soon as
// targetField is populated anywhere in the current frontier, or when
// maxDepth or the grep-call budget is exhausted. Cycles are avoided by
// a (field, value) visited set shared across the whole walk.
func walkRelationship(ctx context.Context, store *logstore.Store, catalog *entitycatalog.Catalog, startValue, targetField string, maxDepth, budget int) (logmodel.RelationshipChain, int, error) {
	visited := map[string]bool{"_seed|" + startValue: true}
	frontier := []frontierItem{{value: startValue}}
	calls := 0

	for depth := 1; depth <= maxDepth && calls < budget && len(frontier) > 0; depth++ {
		var next []frontierItem
		var found []frontierItem

		for _, item := range frontier {
			if calls >= budget {
				break
			}
			if ctx.Err() != nil {
				return logmodel.RelationshipChain{}, calls, ctx.Err()
			}
			calls++
			result, err := store.Search(ctx, logstore.SearchParams{Pattern: item.value, MaxMatches: perHopSearchCap})
			if err != nil {
				continue
			}

			for _, row := range result.WorkingSet.Rows {
				raw, ok := row.Get(store.PayloadColumn())
				if !ok {
					continue
				}
				event := logmodel.ParsePayload(raw)
				for field, value := range event.Fields {
					key := field + "|" + value
					if visited[key] {
						continue
					}
					visited[key] = true
					hops := append(append([]logmodel.RelationshipHop(nil), item.hops...), logmodel.RelationshipHop{Field: field, Value: value})
					if strings.EqualFold(field, targetField) {
						found = append(found, frontierItem{value: value, hops: hops})
					} else {
						next = append(next, frontierItem{value: value, hops: hops})
					}
				}
			}
		}

		if len(found) > 0 {
			best := pickBestChain(found, catalog)
			return logmodel.RelationshipChain{
				Path:        best.hops,
				TargetField: targetField,
				TargetValue: best.value,
				Depth:       depth,
				Found:       true,
			}, calls, nil
		}
		frontier = next
	}

	return logmodel.RelationshipChain{TargetField: targetField, Found: false}, calls, nil
}

// pickBestChain breaks ties among same-depth candidates by the sum of
// neighbor-kind counts of each hop's field kind (excluding the final,
// target hop) — a higher signal means the earlier hops traversed
// better-connected kinds, preferred as the more informative path.
// Remaining ties are broken by the hop values themselves, for full
// determinism.
func pickBestChain(candidates []frontierItem, catalog *entitycatalog.Catalog) frontierItem {
	sort.SliceStable(candidates, func(i, j int) bool {
		si := neighborSignal(candidates[i], catalog)
		sj := neighborSignal(candidates[j], catalog)
		if si != sj {
			return si > sj
		}
		return pathKey(candidates[i]) < pathKey(candidates[j])
	})
	return candidates[0]
}

func neighborSignal(item frontierItem, catalog *entitycatalog.Catalog) int {
	signal := 0
	for i, hop := range item.hops {
		if i == len(item.hops)-1 {
			break // exclude the final, target hop
		}
		if kind, ok := catalog.KindOf(hop.Field); ok {
			signal += len(catalog.Neighbors(kind))
		}
	}
	return signal
}

func pathKey(item frontierItem) string {
	parts := make([]string, len(item.hops))
	for i, h := range item.hops {
		parts[i] = h.Field + "=" + h.Value
	}
	return strings.Join(parts, "|")
}

// FindRelationshipChainTool walks the implicit log graph from a known
// value to a target field by recursively grepping and parsing payload
// fields, the way an analyst would pivot from one identifier to a
// related one across several log lines.
type FindRelationshipChainTool struct {
	store   *logstore.Store
	catalog *entitycatalog.Catalog
}

// NewFindRelationshipChainTool builds a find_relationship_chain tool.
func NewFindRelationshipChainTool(store *logstore.Store, catalog *entitycatalog.Catalog) *FindRelationshipChainTool {
	return &FindRelationshipChainTool{store: store, catalog: catalog}
}

func (t *FindRelationshipChainTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "find_relationship_chain",
		Description: "Walk from a known value to a target field across related log lines, pivoting on shared identifiers.",
		Parameters: []tools.ParamSpec{
			{Name: "start_value", Type: tools.ParamString, Required: true, Description: "The value to start the walk from."},
			{Name: "target_field", Type: tools.ParamString, Required: true, Description: "The payload field the walk is trying to reach."},
			{Name: "max_depth", Type: tools.ParamInt, Default: defaultMaxDepth, Description: "Maximum number of hops to attempt (1-5). Default 4."},
		},
	}
}

func (t *FindRelationshipChainTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	startValue := paramString(params, "start_value")
	targetField := paramString(params, "target_field")
	if startValue == "" || targetField == "" {
		return logmodel.ToolResult{OK: false, Message: "start_value and target_field are required"}, nil
	}
	maxDepth := paramInt(params, "max_depth", defaultMaxDepth)
	if maxDepth < 1 {
		maxDepth = 1
	}
	if maxDepth > 5 {
		maxDepth = 5
	}

	chain, calls, err := walkRelationship(ctx, t.store, t.catalog, startValue, targetField, maxDepth, defaultWalkerBudget)
	if err != nil {
		if ctx.Err() != nil {
			return logmodel.ToolResult{}, ctx.Err()
		}
		return logmodel.ToolResult{OK: false, Message: fmt.Sprintf("walk failed: %s", err)}, nil
	}

	if !chain.Found {
		return logmodel.ToolResult{
			OK:       true,
			Message:  fmt.Sprintf("no path to %s found within %d hop(s) and %d search(es)", targetField, maxDepth, calls),
			Data:     chain,
			DataType: logmodel.DataAggregated,
		}, nil
	}

	return logmodel.ToolResult{
		OK:       true,
		Message:  fmt.Sprintf("found %s=%s at depth %d (%d search(es))", targetField, chain.TargetValue, chain.Depth, calls),
		Data:     chain,
		DataType: logmodel.DataAggregated,
	}, nil
}

// CountViaRelationshipTool aggregates how many distinct source-field
// values map (via the relationship walker) to each target-field value.
type CountViaRelationshipTool struct {
	store   *logstore.Store
	catalog *entitycatalog.Catalog
}

// NewCountViaRelationshipTool builds a count_via_relationship tool.
func NewCountViaRelationshipTool(store *logstore.Store, catalog *entitycatalog.Catalog) *CountViaRelationshipTool {
	return &CountViaRelationshipTool{store: store, catalog: catalog}
}

func (t *CountViaRelationshipTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "count_via_relationship",
		Description: "For every distinct source-field value in the log, walk to the target field and count how many sources map to each target value.",
		Parameters: []tools.ParamSpec{
			{Name: "source_field", Type: tools.ParamString, Required: true, Description: "Field whose distinct values are the starting points."},
			{Name: "target_field", Type: tools.ParamString, Required: true, Description: "Field each source value should be walked to."},
			{Name: "max_depth", Type: tools.ParamInt, Default: defaultMaxDepth, Description: "Maximum hops per walk. Default 4."},
			{Name: "top_n", Type: tools.ParamInt, Default: defaultTopN, Description: "Number of target values to report. Default 10."},
		},
	}
}

func (t *CountViaRelationshipTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	sourceField := paramString(params, "source_field")
	targetField := paramString(params, "target_field")
	if sourceField == "" || targetField == "" {
		return logmodel.ToolResult{OK: false, Message: "source_field and target_field are required"}, nil
	}
	maxDepth := paramInt(params, "max_depth", defaultMaxDepth)
	topN := paramInt(params, "top_n", defaultTopN)

	full, err := t.store.Search(ctx, logstore.SearchParams{Pattern: ""})
	if err != nil {
		if ctx.Err() != nil {
			return logmodel.ToolResult{}, ctx.Err()
		}
		return logmodel.ToolResult{OK: false, Message: fmt.Sprintf("scan failed: %s", err)}, nil
	}

	sourceValues, err := extractField(full.WorkingSet, t.store.PayloadColumn(), sourceField)
	if err != nil {
		return logmodel.ToolResult{OK: false, Message: err.Error()}, nil
	}
	distinctSources := dedupePreserveOrder(sourceValues)

	counts := make(map[string]int)
	mapped := 0
	for _, src := range distinctSources {
		if ctx.Err() != nil {
			return logmodel.ToolResult{}, ctx.Err()
		}
		chain, _, err := walkRelationship(ctx, t.store, t.catalog, src, targetField, maxDepth, defaultWalkerBudget)
		if err != nil {
			continue
		}
		if chain.Found {
			counts[chain.TargetValue]++
			mapped++
		}
	}

	groups := make([]logmodel.GroupCount, 0, len(counts))
	for k, c := range counts {
		groups = append(groups, logmodel.GroupCount{Key: k, Count: c})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})
	if topN > 0 && len(groups) > topN {
		groups = groups[:topN]
	}

	return logmodel.ToolResult{
		OK:       true,
		Message:  fmt.Sprintf("mapped %d/%d source value(s) to %s (coverage %.0f%%)", mapped, len(distinctSources), targetField, coveragePct(mapped, len(distinctSources))),
		Data:     groups,
		DataType: logmodel.DataAggregated,
	}, nil
}

func coveragePct(mapped, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(mapped) / float64(total) * 100
}
