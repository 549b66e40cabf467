package observability

import (
	"context"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// TreeMetrics instruments a single ordered container: operation
// counters plus a live-node gauge fed by a caller-supplied callback,
// following the same otel.Meter/lo.Must wiring appStats uses for
// runtime-level counters.
type TreeMetrics struct {
	inserts   metric.Int64Counter
	updates   metric.Int64Counter
	deletes   metric.Int64Counter
	gets      metric.Int64Counter
	rotations metric.Int64Counter
	liveNodes metric.Int64ObservableGauge
}

// NewTreeMetrics registers a set of instruments under name, scoped so
// multiple trees (e.g. per shard in a benchmark) can be told apart by
// their meter name.
func NewTreeMetrics(name string, liveNodes func(ctx context.Context) int64) *TreeMetrics {
	meter := otel.Meter("xrbtree/tree/" + name)
	tm := &TreeMetrics{
		inserts: lo.Must(meter.Int64Counter(
			"tree.insert.count",
			metric.WithDescription("Number of Insert calls, including no-op inserts of an already-present key."),
		)),
		updates: lo.Must(meter.Int64Counter(
			"tree.update.count",
			metric.WithDescription("Number of Update calls that changed a present key."),
		)),
		deletes: lo.Must(meter.Int64Counter(
			"tree.delete.count",
			metric.WithDescription("Number of Delete calls that removed a key."),
		)),
		gets: lo.Must(meter.Int64Counter(
			"tree.get.count",
			metric.WithDescription("Number of Get calls that found a key."),
		)),
		rotations: lo.Must(meter.Int64Counter(
			"tree.rotation.count",
			metric.WithDescription("Number of rotateLeft/rotateRight calls performed while rebalancing."),
		)),
	}
	if liveNodes != nil {
		tm.liveNodes = lo.Must(meter.Int64ObservableGauge(
			"tree.live_nodes",
			metric.WithDescription("Current number of key-value pairs stored."),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(liveNodes(ctx))
				return nil
			}),
		))
	}
	return tm
}

func (tm *TreeMetrics) ObserveInsert(ctx context.Context) { tm.inserts.Add(ctx, 1) }
func (tm *TreeMetrics) ObserveUpdate(ctx context.Context) { tm.updates.Add(ctx, 1) }
func (tm *TreeMetrics) ObserveDelete(ctx context.Context) { tm.deletes.Add(ctx, 1) }
func (tm *TreeMetrics) ObserveGet(ctx context.Context)    { tm.gets.Add(ctx, 1) }

func (tm *TreeMetrics) ObserveRotations(ctx context.Context, n int64) {
	if n == 0 {
		return
	}
	tm.rotations.Add(ctx, n)
}
