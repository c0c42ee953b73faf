package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/awaistahir/loadplan/internal/engine"
	"github.com/awaistahir/loadplan/internal/tables"
)

const (
	octopusAPIBase = "https://api.octopus.energy/v1"
	// Current Agile product code - update as needed
	defaultAgileProduct = "AGILE-24-10-01"
	defaultRegion       = "C"
)

// ErrIncompleteDay is returned when the API has not published every hour of a day yet
var ErrIncompleteDay = errors.New("prices do not cover all 24 hours")

// Slot is one half-hourly price period
type Slot struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	PencePerKWh float64   `json:"pence_per_kwh"`
}

// OctopusClient fetches electricity prices from Octopus Energy Agile tariff
type OctopusClient struct {
	httpClient *http.Client
	baseURL    string
	product    string
	region     string
}

// Option configures an OctopusClient
type Option func(*OctopusClient)

// WithBaseURL points the client at another API host
func WithBaseURL(u string) Option {
	return func(c *OctopusClient) { c.baseURL = u }
}

// WithProduct selects another Agile product code
func WithProduct(product string) Option {
	return func(c *OctopusClient) { c.product = product }
}

// WithHTTPClient replaces the default client with a 30s timeout
func WithHTTPClient(hc *http.Client) Option {
	return func(c *OctopusClient) { c.httpClient = hc }
}

// NewOctopusClient creates a new client for the Octopus Agile API
func NewOctopusClient(region string, opts ...Option) *OctopusClient {
	if region == "" {
		region = defaultRegion
	}
	c := &OctopusClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    octopusAPIBase,
		product:    defaultAgileProduct,
		region:     region,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// octopusResponse represents the API response structure
type octopusResponse struct {
	Count    int          `json:"count"`
	Next     *string      `json:"next"`
	Previous *string      `json:"previous"`
	Results  []resultItem `json:"results"`
}

type resultItem struct {
	ValueExcVAT   float64   `json:"value_exc_vat"`
	ValueIncVAT   float64   `json:"value_inc_vat"`
	ValidFrom     time.Time `json:"valid_from"`
	ValidTo       time.Time `json:"valid_to"`
	PaymentMethod *string   `json:"payment_method"`
}

// HalfHourly fetches half-hourly prices for a specific day and region
func (c *OctopusClient) HalfHourly(ctx context.Context, day time.Time, region string) ([]Slot, error) {
	if region == "" {
		region = c.region
	}

	// Construct tariff code: E-1R-{PRODUCT}-{REGION}
	tariffCode := fmt.Sprintf("E-1R-%s-%s", c.product, region)

	endpoint := fmt.Sprintf("%s/products/%s/electricity-tariffs/%s/standard-unit-rates/",
		c.baseURL, c.product, tariffCode)

	// Set period for the full day in UTC
	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	endOfDay := startOfDay.Add(24 * time.Hour)

	params := url.Values{}
	params.Add("period_from", startOfDay.Format(time.RFC3339))
	params.Add("period_to", endOfDay.Format(time.RFC3339))

	fullURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var octResp octopusResponse
	if err := json.NewDecoder(resp.Body).Decode(&octResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	slots := make([]Slot, 0, len(octResp.Results))
	for _, r := range octResp.Results {
		slots = append(slots, Slot{
			Start:       r.ValidFrom,
			End:         r.ValidTo,
			PencePerKWh: r.ValueIncVAT,
		})
	}

	// API returns in reverse chronological order
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})

	return slots, nil
}

// Hourly fetches a day of Agile prices and averages them into a 24-row tariff table
func (c *OctopusClient) Hourly(ctx context.Context, day time.Time, region string) ([]tables.TariffRow, error) {
	slots, err := c.HalfHourly(ctx, day, region)
	if err != nil {
		return nil, err
	}
	return HourlyAverage(slots)
}

// HourlyAverage groups slots by UTC hour of day and averages their prices.
// Every hour must have at least one slot.
func HourlyAverage(slots []Slot) ([]tables.TariffRow, error) {
	var sums [engine.HoursPerDay]float64
	var counts [engine.HoursPerDay]int
	for _, s := range slots {
		h := s.Start.UTC().Hour()
		sums[h] += s.PencePerKWh
		counts[h]++
	}

	rows := make([]tables.TariffRow, engine.HoursPerDay)
	for h := range rows {
		if counts[h] == 0 {
			return nil, fmt.Errorf("%w: hour %d missing", ErrIncompleteDay, h)
		}
		rows[h] = tables.TariffRow{Hour: h, Price: sums[h] / float64(counts[h])}
	}

	return rows, nil
}
