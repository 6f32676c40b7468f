// client.go contains the http side of talking to the results portal, it knows
// nothing about what the pages mean.

package portal

import (
	"context"
	"fmt"
	"jntuh-results-backend/internal/components/assert"
	"jntuh-results-backend/internal/components/telemetry"
	"jntuh-results-backend/internal/curriculum"
	"jntuh-results-backend/lib/restyutil"
	"net"
	"net/http"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch = "client.fetch"

	homePath   = "/jsp/home.jsp"
	resultPath = "/results/resultAction"

	DefaultBaseUrl = "http://results.jntuh.ac.in"
)

var meter = otel.Meter("jntuh-results/portal")
var fetchCounter, _ = meter.Int64Counter(
	"portal.fetch",
	metric.WithDescription("requests made to the results portal by outcome"),
)

// Variant selects which rendering of a result the portal returns.
type Variant string

const (
	// VariantRegular is the result as first published.
	VariantRegular Variant = "null"
	// VariantRevaluation carries grades changed after recounting/revaluation.
	VariantRevaluation Variant = "gradercrv"
)

// Variants is in merge order, later variants overwrite earlier ones.
var Variants = []Variant{VariantRegular, VariantRevaluation}

// ResultQuery identifies one result page.
type ResultQuery struct {
	ExamCode string
	Variant  Variant
	Degree   curriculum.Degree
	RollNo   string
}

// Path renders the query as a path relative to the portal base url.
func (q ResultQuery) Path() string {
	values := url.Values{}
	values.Set("examCode", q.ExamCode)
	values.Set("etype", "r16")
	values.Set("result", string(q.Variant))
	values.Set("grad", "null")
	values.Set("type", "intgrade")
	values.Set("degree", string(q.Degree))
	values.Set("htno", q.RollNo)
	return resultPath + "?" + values.Encode()
}

// FetchError is returned for every fetch that did not end in a 2xx response,
// callers are expected to skip the page rather than abort.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Err.Error())
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Options struct {
	BaseUrl string
	// Timeout bounds each attempt.
	Timeout time.Duration
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Backoff is the wait before the first retry, it doubles every retry up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration
	// MaxConns bounds pooled connections to the portal.
	MaxConns int
	// RequestsPerSecond throttles requests when > 0.
	RequestsPerSecond float64
	CloudflareBypass  bool
	// Dump receives every exchange with the portal when set.
	Dump restyutil.Output
}

// DefaultOptions are the options the portal has been observed to tolerate.
func DefaultOptions() Options {
	return Options{
		BaseUrl:    DefaultBaseUrl,
		Timeout:    time.Second * 10,
		Attempts:   3,
		Backoff:    time.Second,
		MaxBackoff: time.Second * 8,
		MaxConns:   64,
	}
}

// Client is safe for concurrent use, build one per process and share it.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	tel telemetry.API
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel, "telemetry")

	tel = telemetry.NewScopedAPI("portal", tel)

	defaults := DefaultOptions()
	if opts.BaseUrl == "" {
		opts.BaseUrl = defaults.BaseUrl
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = defaults.Attempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaults.Backoff
	}
	if opts.MaxBackoff < opts.Backoff {
		opts.MaxBackoff = opts.Backoff * 8
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = defaults.MaxConns
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: time.Second * 30,
		}).DialContext,
		MaxIdleConns:        opts.MaxConns,
		MaxIdleConnsPerHost: opts.MaxConns,
		MaxConnsPerHost:     opts.MaxConns,
		IdleConnTimeout:     time.Second * 90,
		TLSHandshakeTimeout: time.Second * 10,
	})
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	httpClient.SetTimeout(opts.Timeout)

	httpClient.SetRetryCount(opts.Attempts - 1)
	httpClient.SetRetryWaitTime(opts.Backoff)
	httpClient.SetRetryMaxWaitTime(opts.MaxBackoff)
	httpClient.AddRetryCondition(retryTransientStatus)

	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, "jntuh-results/portal/http", tel)
	if opts.Dump != nil {
		restyutil.DumpMessages(httpClient, opts.Dump)
	}

	return &Client{
		BaseUrl: baseUrl,
		Http:    httpClient,
		tel:     tel,
	}, nil
}

// only server side hiccups are worth another try, a timeout already spent
// the whole budget and a 4xx will not change.
func retryTransientStatus(res *resty.Response, err error) bool {
	if res == nil || err != nil {
		return false
	}
	switch res.StatusCode() {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Fetch GETs endpoint (relative to the base url) and returns the body of a 2xx
// response. Any other outcome is a *FetchError.
func (c *Client) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		fetchCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "error")))
		return nil, &FetchError{URL: endpoint, Err: err}
	}
	if !res.IsSuccess() {
		fetchCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "status")))
		c.tel.ReportWarning(
			report_client_fetch,
			fmt.Errorf("unexpected status: %s", res.Status()),
			endpoint,
		)
		return nil, &FetchError{URL: endpoint, StatusCode: res.StatusCode()}
	}

	fetchCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	return res.Body(), nil
}

// HomePage fetches the page listing every published examination.
func (c *Client) HomePage(ctx context.Context) ([]byte, error) {
	return c.Fetch(ctx, homePath)
}

// ResultPage fetches the result page for one roll number, exam code and variant.
func (c *Client) ResultPage(ctx context.Context, q ResultQuery) ([]byte, error) {
	return c.Fetch(ctx, q.Path())
}
