// Command xtreebench drives concurrent, independent tree.Tree instances
// through a synthetic insert/get/update/delete/range workload and reports
// throughput plus rebalancing cost. Each worker owns its own tree; the
// pool never shares a tree across goroutines, since Tree itself carries
// no internal synchronization.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xrbtree/lib/hrtime"
	"github.com/benz9527/xrbtree/lib/id"
	"github.com/benz9527/xrbtree/lib/infra"
	xruntime "github.com/benz9527/xrbtree/lib/runtime"
	"github.com/benz9527/xrbtree/lib/tree"
	"github.com/benz9527/xrbtree/observability"
	"github.com/benz9527/xrbtree/xlog"
)

func main() {
	shards := flag.Int("shards", 8, "number of independent trees, one per worker")
	opsPerShard := flag.Int("ops", 200_000, "operations run against each shard's tree")
	workers := flag.Int("workers", 0, "ants pool size; 0 uses shards")
	exporter := flag.String("exporter", "console", "metrics exporter: console or prometheus")
	rangeWidth := flag.Uint64("range-width", 64, "key span probed by each range operation")
	flag.Parse()

	log := xlog.NewXLogger(xlog.WithXLoggerStdOutWriter(), xlog.WithXLoggerLevel(xlog.LogLevelInfo))
	defer func() { _ = log.Sync() }()

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Logf(zapcore.InfoLevel, format, args...)
	})); err != nil {
		log.Warn("maxprocs adjustment failed", zap.Error(err))
	}

	logHostSnapshot(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	observability.InitAppStats(ctx, "xtreebench")
	shutdownExporter, err := setupExporter(*exporter)
	if err != nil {
		log.Error(err, "failed to start metrics exporter")
		os.Exit(1)
	}
	defer func() { _ = shutdownExporter(context.Background()) }()

	poolSize := *workers
	if poolSize <= 0 {
		poolSize = *shards
	}
	pool, err := ants.NewPool(poolSize, ants.WithPreAlloc(true))
	if err != nil {
		log.Error(err, "failed to build worker pool")
		os.Exit(1)
	}
	defer pool.Release()

	results := make([]shardResult, *shards)
	var wg sync.WaitGroup
	var errsMu sync.Mutex
	var errs error

	for i := 0; i < *shards; i++ {
		i := i
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			res, rerr := runShard(ctx, i, *opsPerShard, *rangeWidth, log)
			if rerr != nil {
				errsMu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("shard %d: %w", i, rerr))
				errsMu.Unlock()
				return
			}
			results[i] = res
		})
		if submitErr != nil {
			wg.Done()
			errsMu.Lock()
			errs = multierr.Append(errs, fmt.Errorf("shard %d: submit: %w", i, submitErr))
			errsMu.Unlock()
		}
	}
	wg.Wait()

	if errs != nil {
		log.Error(errs, "one or more shards failed")
		os.Exit(1)
	}

	report(log, results)
}

type shardResult struct {
	ops       int
	elapsed   time.Duration
	rotations uint64
	liveNodes uint32
}

func runShard(ctx context.Context, shard, ops int, rangeWidth uint64, log xlog.XLogger) (shardResult, error) {
	gen, err := id.MonotonicNonZeroID()
	if err != nil {
		return shardResult{}, err
	}

	t := tree.New[uint64, uint64](compareUint64, tree.WithAutoGrow[uint64, uint64](4096))
	metrics := observability.NewTreeMetrics(
		fmt.Sprintf("xtreebench.shard-%d", shard),
		func(context.Context) int64 { return int64(t.Len()) },
	)

	rangeBuf := make([]uint64, rangeWidth)
	start := hrtime.NowInUTC()
	for i := 0; i < ops; i++ {
		if ctx.Err() != nil {
			break
		}
		key := gen.Number()
		switch i % 5 {
		case 0, 1:
			if _, ierr := t.Insert(key, key); ierr != nil {
				return shardResult{}, ierr
			}
			metrics.ObserveInsert(ctx)
		case 2:
			if _, ok := t.Get(key); ok {
				metrics.ObserveGet(ctx)
			}
		case 3:
			if _, uerr := t.Update(key, key+1); uerr == nil {
				metrics.ObserveUpdate(ctx)
			}
		case 4:
			if _, dok := t.Delete(key); dok {
				metrics.ObserveDelete(ctx)
			}
			_, _ = t.Range(key, key+rangeWidth, rangeBuf)
		}
	}
	elapsed := hrtime.Since(start)
	metrics.ObserveRotations(ctx, int64(t.Rotations()))

	if verr := tree.ValidateInvariants(t); verr != nil {
		return shardResult{}, verr
	}

	log.InfoContext(ctx, "shard finished",
		zap.Int("shard", shard),
		zap.Duration("elapsed", elapsed),
		zap.Uint64("rotations", t.Rotations()),
		zap.Uint32("live_nodes", t.Len()),
	)

	return shardResult{
		ops:       ops,
		elapsed:   elapsed,
		rotations: t.Rotations(),
		liveNodes: t.Len(),
	}, nil
}

func compareUint64(i, j uint64) int64 {
	if i < j {
		return -1
	}
	if i > j {
		return 1
	}
	return 0
}

var _ infra.OrderedKeyComparator[uint64] = compareUint64

func setupExporter(kind string) (func(ctx context.Context) error, error) {
	switch kind {
	case "prometheus":
		return observability.NewPrometheusMetricsExporter()
	case "console":
		return observability.NewConsoleMetricsExporter(10*time.Second, 5*time.Second)
	default:
		return nil, fmt.Errorf("unknown exporter %q", kind)
	}
}

func logHostSnapshot(log xlog.XLogger) {
	fields := []zap.Field{
		zap.Bool("docker", xruntime.IsRunningAtDocker()),
		zap.Bool("kubernetes", xruntime.IsRunningAtKubernetes()),
	}
	if cid := xruntime.LoadContainerID(); cid != "" {
		fields = append(fields, zap.String("container_id", cid))
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		fields = append(fields, zap.Float64("cpu_percent", pct[0]))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fields = append(fields, zap.Uint64("mem_total_bytes", vm.Total), zap.Float64("mem_used_percent", vm.UsedPercent))
	}
	log.Info("host snapshot", fields...)
}

func report(log xlog.XLogger, results []shardResult) {
	var totalOps int
	var totalRotations uint64
	var totalLive uint32
	var maxElapsed time.Duration
	for _, r := range results {
		totalOps += r.ops
		totalRotations += r.rotations
		totalLive += r.liveNodes
		maxElapsed = lo.Max([]time.Duration{maxElapsed, r.elapsed})
	}
	throughput := float64(0)
	if maxElapsed > 0 {
		throughput = float64(totalOps) / maxElapsed.Seconds()
	}
	log.Info("benchmark complete",
		zap.Int("total_ops", totalOps),
		zap.Uint64("total_rotations", totalRotations),
		zap.Uint32("total_live_nodes", totalLive),
		zap.Duration("wall_clock", maxElapsed),
		zap.Float64("ops_per_sec", throughput),
	)
}
