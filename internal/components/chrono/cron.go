package chrono

import (
	"fmt"
	"jntuh-results-backend/internal/components/telemetry"

	"github.com/robfig/cron/v3"
)

const report_cron = "cron"

// CronAPI runs callbacks on a cron schedule.
type CronAPI interface {
	Cron(schedule string, callback func()) error
}

// StandardCron schedules in IST. A job still running when its next run comes
// due is skipped for that run, a panicking job is reported and recovered.
type StandardCron struct {
	scheduler *cron.Cron
}

// NewStandardCron returns a started scheduler.
func NewStandardCron(tel telemetry.API) StandardCron {
	logger := cronReporter{tel: tel}
	scheduler := cron.New(
		cron.WithLocation(ist),
		cron.WithLogger(logger),
		cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		),
	)
	scheduler.Start()
	return StandardCron{scheduler: scheduler}
}

func (s StandardCron) Cron(schedule string, callback func()) error {
	_, err := s.scheduler.AddFunc(schedule, callback)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}
	return nil
}

// Stop stops scheduling, running jobs are not waited on.
func (s StandardCron) Stop() {
	s.scheduler.Stop()
}

// cronReporter adapts telemetry.API to cron.Logger.
type cronReporter struct {
	tel telemetry.API
}

func pairs(keysAndValues []any) []any {
	var out []any
	for len(keysAndValues) >= 2 {
		out = append(out, telemetry.KV{Key: fmt.Sprint(keysAndValues[0]), Value: keysAndValues[1]})
		keysAndValues = keysAndValues[2:]
	}
	return out
}

func (r cronReporter) Info(msg string, keysAndValues ...any) {
	r.tel.ReportDebug(report_cron+": "+msg, pairs(keysAndValues)...)
}

func (r cronReporter) Error(err error, msg string, keysAndValues ...any) {
	params := append([]any{fmt.Errorf("%s: %w", msg, err)}, pairs(keysAndValues)...)
	r.tel.ReportBroken(report_cron, params...)
}
