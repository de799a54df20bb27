package buffer

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"go.viam.com/utils"

	"go.viam.com/tfcache/tf"
)

var (
	keyResult = tag.MustNewKey("result")

	insertCount = stats.Int64("tfcache/inserts", "transform samples offered to a buffer", stats.UnitDimensionless)
	lookupCount = stats.Int64("tfcache/lookups", "transform lookups answered by a buffer", stats.UnitDimensionless)

	// Views aggregates buffer activity by outcome. Register them with RegisterViews.
	Views = []*view.View{
		{
			Name:        "tfcache/inserts",
			Description: "Number of transform samples offered, by accepted or rejected",
			Measure:     insertCount,
			TagKeys:     []tag.Key{keyResult},
			Aggregation: view.Count(),
		},
		{
			Name:        "tfcache/lookups",
			Description: "Number of transform lookups, by error kind",
			Measure:     lookupCount,
			TagKeys:     []tag.Key{keyResult},
			Aggregation: view.Count(),
		},
	}
)

// RegisterViews registers the buffer views with opencensus.
func RegisterViews() error {
	return view.Register(Views...)
}

// UnregisterViews undoes RegisterViews.
func UnregisterViews() {
	view.Unregister(Views...)
}

func recordInsert(accepted bool) {
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	record(insertCount, result)
}

func recordLookup(err error) {
	record(lookupCount, tf.ErrorKind(err))
}

func record(m *stats.Int64Measure, result string) {
	utils.UncheckedError(stats.RecordWithTags(context.Background(), []tag.Mutator{tag.Upsert(keyResult, result)}, m.M(1)))
}
