package application

import (
	"jntuh-results-backend/internal/examcodes"
	"jntuh-results-backend/internal/portal"
	"jntuh-results-backend/internal/results"
	"jntuh-results-backend/lib/configutil"
	"jntuh-results-backend/lib/restyutil"
	"strings"
	"time"
)

type PortalConfig struct {
	BaseUrl        string  `json:"base_url"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
	// Attempts is the total number of requests per page, including the first.
	Attempts          int     `json:"attempts"`
	BackoffSeconds    float64 `json:"backoff_seconds"`
	MaxConcurrency    int     `json:"max_concurrency"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	BypassCloudflare  bool    `json:"bypass_cloudflare"`
	// DumpDir receives a file per portal response when set.
	DumpDir string `json:"dump_dir"`
}

type ExamCodesConfig struct {
	SnapshotPath string  `json:"snapshot_path"`
	MaxAgeHours  float64 `json:"max_age_hours"`
	// RefreshCron is a cron schedule, or RefreshCronOff. Left out, it takes
	// the default schedule.
	RefreshCron string `json:"refresh_cron"`
}

// RefreshCronOff disables scheduled refreshes. An empty value cannot do this
// since it is filled in from the defaults.
const RefreshCronOff = "off"

// RefreshSchedule returns the cron schedule and whether scheduled refreshes
// are enabled.
func (c ExamCodesConfig) RefreshSchedule() (string, bool) {
	spec := strings.TrimSpace(c.RefreshCron)
	if spec == "" || strings.EqualFold(spec, RefreshCronOff) {
		return "", false
	}
	return spec, true
}

type CacheConfig struct {
	Size       int     `json:"size"`
	TtlMinutes float64 `json:"ttl_minutes"`
}

type HttpConfig struct {
	Port int `json:"port"`
}

type Config struct {
	Portal    PortalConfig    `json:"portal"`
	ExamCodes ExamCodesConfig `json:"exam_codes"`
	Cache     CacheConfig     `json:"cache"`
	Http      HttpConfig      `json:"http"`
}

func DefaultConfig() Config {
	return Config{
		Portal: PortalConfig{
			BaseUrl:        portal.DefaultBaseUrl,
			TimeoutSeconds: 10,
			Attempts:       3,
			BackoffSeconds: 1,
			MaxConcurrency: results.DefaultPoolSize,
		},
		ExamCodes: ExamCodesConfig{
			SnapshotPath: "exam_codes.json",
			MaxAgeHours:  examcodes.DefaultMaxAge.Hours(),
			RefreshCron:  "30 2 * * *",
		},
		Cache: CacheConfig{
			Size:       1024,
			TtlMinutes: 30,
		},
		Http: HttpConfig{
			Port: 8000,
		},
	}
}

// ReadConfig reads `name` (and its .local override), filling in defaults for
// everything left out.
func ReadConfig(name string) (Config, error) {
	return configutil.ReadWithDefaults(name, DefaultConfig())
}

func seconds(n float64) time.Duration {
	return time.Duration(n * float64(time.Second))
}

func (c PortalConfig) Options() (portal.Options, error) {
	opts := portal.Options{
		BaseUrl:           c.BaseUrl,
		Timeout:           seconds(c.TimeoutSeconds),
		Attempts:          c.Attempts,
		Backoff:           seconds(c.BackoffSeconds),
		MaxBackoff:        seconds(c.BackoffSeconds) * 8,
		MaxConns:          c.MaxConcurrency,
		RequestsPerSecond: c.RequestsPerSecond,
		CloudflareBypass:  c.BypassCloudflare,
	}
	if c.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(c.DumpDir)
		if err != nil {
			return portal.Options{}, err
		}
		opts.Dump = output
	}
	return opts, nil
}

func (c Config) ResultsOptions() results.Options {
	return results.Options{
		CacheSize: c.Cache.Size,
		CacheTTL:  time.Duration(c.Cache.TtlMinutes * float64(time.Minute)),
		PoolSize:  int64(c.Portal.MaxConcurrency),
	}
}

func (c ExamCodesConfig) Store() examcodes.Store {
	return examcodes.NewStore(
		c.SnapshotPath,
		time.Duration(c.MaxAgeHours*float64(time.Hour)),
	)
}
