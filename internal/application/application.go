// Package application wires the portal client, exam code provider and result
// aggregator together out of a Config, every binary builds its dependencies
// through it.
package application

import (
	"jntuh-results-backend/internal/components/chrono"
	"jntuh-results-backend/internal/components/telemetry"
	"jntuh-results-backend/internal/examcodes"
	"jntuh-results-backend/internal/portal"
	"jntuh-results-backend/internal/results"
	"jntuh-results-backend/internal/service"
)

type Application struct {
	Client     *portal.Client
	ExamCodes  *examcodes.Provider
	Aggregator *results.Aggregator
	Service    service.Service
}

func New(cfg Config, time chrono.TimeAPI, tel telemetry.API) (Application, error) {
	opts, err := cfg.Portal.Options()
	if err != nil {
		return Application{}, err
	}
	client, err := portal.NewClient(opts, tel)
	if err != nil {
		return Application{}, err
	}
	provider := examcodes.NewProvider(cfg.ExamCodes.Store(), client, time, tel)
	aggregator := results.NewAggregator(provider, client, cfg.ResultsOptions(), tel)

	return Application{
		Client:     client,
		ExamCodes:  provider,
		Aggregator: aggregator,
		Service: service.NewService(
			aggregator,
			provider,
			service.WithCustomTelemetryAPI(tel),
		),
	}, nil
}
