package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
)

const perfStatsInterval = time.Second * 30

var meter = otel.Meter("jntuh-results/perf_stats")
var processCpuGauge, _ = meter.Float64Gauge("process.cpu_percent")
var processRssGauge, _ = meter.Int64Gauge("process.rss_mb")
var goroutineGauge, _ = meter.Int64Gauge("process.goroutines")

// InstrumentPerfStats records the cpu, resident memory and goroutines of this
// process every 30 seconds until ctx is done.
func InstrumentPerfStats(ctx context.Context) {
	self, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		slog.Warn("perf stats disabled", "err", err)
		return
	}

	go func() {
		ticker := time.NewTicker(perfStatsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				recordPerfStats(ctx, self)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func recordPerfStats(ctx context.Context, self *process.Process) {
	// an interval of 0 measures since the previous call
	cpu, err := self.PercentWithContext(ctx, 0)
	if err != nil {
		slog.Warn("read process cpu", "err", err)
	} else {
		processCpuGauge.Record(ctx, cpu)
	}

	mem, err := self.MemoryInfoWithContext(ctx)
	if err != nil {
		slog.Warn("read process memory", "err", err)
	} else {
		processRssGauge.Record(ctx, int64(mem.RSS/1_000_000))
	}

	goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
}
