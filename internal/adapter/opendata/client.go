package opendata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/parking-violations-lookup/internal/domain"
	"github.com/couchcryptid/parking-violations-lookup/internal/observability"
)

// ErrUnexpectedStatus is returned when the data source answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("open data: unexpected status")

// maxErrorBody caps how much of a failed response body is echoed into errors.
const maxErrorBody = 512

// Client fetches violation records from a Socrata open data endpoint.
type Client struct {
	baseURL    string
	appToken   string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an open data client for the dataset at baseURL. appToken
// is optional and raises Socrata's per-client rate limit when set.
func NewClient(baseURL, appToken string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		appToken: appToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// FetchByPlate returns every record whose plate equals the given plate. An
// empty slice is a valid result.
func (c *Client) FetchByPlate(ctx context.Context, plate string) ([]domain.Violation, error) {
	params := url.Values{"plate": {plate}}

	start := time.Now()
	records, err := c.get(ctx, params)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	c.metrics.RecordsFetched.Observe(float64(len(records)))

	c.logger.Debug("fetched violations", "plate", plate, "rows", len(records))
	return records, nil
}

// CheckReadiness probes the data source with a single-row query.
func (c *Client) CheckReadiness(ctx context.Context) error {
	_, err := c.get(ctx, url.Values{"$limit": {"1"}})
	return err
}

func (c *Client) get(ctx context.Context, params url.Values) ([]domain.Violation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open data request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, body)
	}

	var records []domain.Violation
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if records == nil {
		records = []domain.Violation{}
	}
	return records, nil
}
