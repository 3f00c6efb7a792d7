package timeline

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Exercises the tracker with arbitrary event sequences and checks the two
// guarantees everything downstream leans on: records appear in start order
// and never reorder, and a record that reached a terminal state never
// changes again.
func TestTrackerInvariants(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100

	properties := gopter.NewProperties(params)

	tools := gen.OneConstOf(
		"search_restaurants",
		"get_restaurant_menu",
		"get_order_details",
		"",
	)

	type op struct {
		kind int
		tool string
	}
	genOps := gen.SliceOf(gopter.CombineGens(
		gen.IntRange(0, 3),
		tools,
	).Map(func(vs []interface{}) op {
		return op{kind: vs[0].(int), tool: vs[1].(string)}
	}))

	properties.Property("order is stable and terminal records are frozen", prop.ForAll(
		func(ops []op) bool {
			tr := NewTracker(WithGracePeriod(0))

			var prevIDs []string
			seen := map[string]Record{}

			for _, o := range ops {
				switch o.kind {
				case 0:
					tr.ToolStarted(o.tool, map[string]any{"query": "x"})
				case 1:
					tr.PreliminaryStarted(o.tool, nil)
				case 2:
					tr.ToolEnded(o.tool, map[string]any{"ok": true})
				case 3:
					tr.ToolFailed(o.tool, "boom")
				}

				timeline := tr.Timeline()

				ids := make([]string, len(timeline))
				for i, rec := range timeline {
					ids[i] = rec.ID
				}
				if len(prevIDs) > len(ids) {
					return false
				}
				for i, id := range prevIDs {
					if ids[i] != id {
						return false
					}
				}
				prevIDs = ids

				for _, rec := range timeline {
					old, ok := seen[rec.ID]
					if ok && (old.Status == StatusCompleted || old.Status == StatusError) {
						if !reflect.DeepEqual(old, rec) {
							return false
						}
					}
					seen[rec.ID] = rec
				}
			}
			return true
		},
		genOps,
	))

	properties.TestingRun(t)
}
