package main

import (
	"flag"
	"jntuh-results-backend/internal/application"
	"jntuh-results-backend/internal/components/chrono"
	"jntuh-results-backend/internal/components/telemetry"
	"jntuh-results-backend/lib/serviceutil"
	"log/slog"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the configuration file.")
	warm := flag.Bool("warm", false, "Load the exam code directory before serving.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := application.ReadConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	if *verbose && cfg.Portal.DumpDir == "" {
		cfg.Portal.DumpDir = ".dev/resty/portal"
	}

	tel := telemetry.SlogAPI{}
	app, err := application.New(cfg, chrono.NewStandardTime(), tel)
	if err != nil {
		serviceutil.Fatal("init application", err)
	}

	if *warm {
		dir, err := app.ExamCodes.Get(ctx)
		if err != nil {
			serviceutil.Fatal("load exam codes", err)
		}
		slog.Info("exam codes loaded", "count", dir.Count())
	}

	if schedule, ok := cfg.ExamCodes.RefreshSchedule(); ok {
		cron := chrono.NewStandardCron(tel)
		defer cron.Stop()
		err = app.ExamCodes.Schedule(cron, schedule)
		if err != nil {
			serviceutil.Fatal("schedule exam code refresh", err)
		}
	}

	serviceutil.StartHttpServer(ctx, cfg.Http.Port, app.Service.Handler())
}
