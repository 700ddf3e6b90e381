// Package openmrs provides a typed REST client for the OpenMRS web
// services API. The client is constructed once and injected into the
// services that consume it; there is no package-level singleton.
package openmrs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// conceptPageSize is the fixed page size for full dictionary listing.
const conceptPageSize = 1000

// conceptListProjection limits the dictionary listing to the fields the
// sync pipeline consumes.
const conceptListProjection = "custom:(uuid,display,name,conceptClass,datatype,set,retired)"

// conceptSearchProjection is the narrower projection used for root-set
// name search.
const conceptSearchProjection = "custom:(uuid,display,set,retired,conceptClass)"

// Config holds the connection settings for an OpenMRS instance.
type Config struct {
	// BaseURL is the REST root, e.g. https://emr.example.org/openmrs/ws/rest/v1.
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	// RetryCount is the number of automatic retries for transient failures.
	RetryCount int
}

// Client talks to the OpenMRS REST API with basic-auth credentials.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

// NewClient builds a Client from cfg. A zero Timeout defaults to 30s.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.Username, cfg.Password).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{http: rc, logger: logger}
}

type conceptList struct {
	Results []Concept `json:"results"`
}

type patientList struct {
	Results []Patient `json:"results"`
}

type orderTypeList struct {
	Results []OrderType `json:"results"`
}

type orderList struct {
	Results []Order `json:"results"`
}

// ListAllConcepts retrieves the complete concept dictionary in pages of
// conceptPageSize, stopping on the first short or empty page. Any page
// failure aborts the whole listing.
func (c *Client) ListAllConcepts(ctx context.Context) ([]Concept, error) {
	var all []Concept
	startIndex := 0

	for {
		var page conceptList
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"q":          "",
				"v":          conceptListProjection,
				"limit":      fmt.Sprintf("%d", conceptPageSize),
				"startIndex": fmt.Sprintf("%d", startIndex),
			}).
			SetResult(&page).
			Get("/concept")
		if err != nil {
			return nil, fmt.Errorf("list concepts at index %d: %w", startIndex, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("list concepts at index %d: status %d", startIndex, resp.StatusCode())
		}

		if len(page.Results) == 0 {
			break
		}
		all = append(all, page.Results...)
		if len(page.Results) < conceptPageSize {
			break
		}
		startIndex += conceptPageSize
	}

	c.logger.Debug().Int("count", len(all)).Msg("fetched concept dictionary")
	return all, nil
}

// GetConcept fetches the full representation of one concept, including
// its set members.
func (c *Client) GetConcept(ctx context.Context, uuid string) (*Concept, error) {
	var out Concept
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("v", "full").
		SetResult(&out).
		Get("/concept/" + uuid)
	if err != nil {
		return nil, fmt.Errorf("get concept %s: %w", uuid, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get concept %s: status %d", uuid, resp.StatusCode())
	}
	return &out, nil
}

// SearchConceptSets searches concepts by name with the root-set
// projection, capped at 50 results.
func (c *Client) SearchConceptSets(ctx context.Context, name string) ([]Concept, error) {
	var page conceptList
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     name,
			"v":     conceptSearchProjection,
			"limit": "50",
		}).
		SetResult(&page).
		Get("/concept")
	if err != nil {
		return nil, fmt.Errorf("search concepts %q: %w", name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search concepts %q: status %d", name, resp.StatusCode())
	}
	return page.Results, nil
}

// FindPatients looks up patients by card identifier (exact search).
func (c *Client) FindPatients(ctx context.Context, cardNumber string) ([]Patient, error) {
	var page patientList
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"identifier": cardNumber,
			"searchType": "card",
			"v":          "full",
		}).
		SetResult(&page).
		Get("/patient")
	if err != nil {
		return nil, fmt.Errorf("find patient %s: %w", cardNumber, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("find patient %s: status %d", cardNumber, resp.StatusCode())
	}
	return page.Results, nil
}

// SearchPatientsRaw returns the unmodified patient search response body,
// for endpoints that proxy the upstream document through.
func (c *Client) SearchPatientsRaw(ctx context.Context, cardNumber string) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"identifier": cardNumber,
			"searchType": "card",
			"v":          "full",
		}).
		Get("/patient")
	if err != nil {
		return nil, fmt.Errorf("search patients %s: %w", cardNumber, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search patients %s: status %d", cardNumber, resp.StatusCode())
	}
	return json.RawMessage(resp.Body()), nil
}

// ListOrderTypes retrieves all configured order types.
func (c *Client) ListOrderTypes(ctx context.Context) ([]OrderType, error) {
	var page orderTypeList
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&page).
		Get("/ordertype")
	if err != nil {
		return nil, fmt.Errorf("list order types: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list order types: status %d", resp.StatusCode())
	}
	return page.Results, nil
}

// ListOrders retrieves all orders for a patient filtered by order type.
func (c *Client) ListOrders(ctx context.Context, patientUUID, orderTypeUUID string) ([]Order, error) {
	var page orderList
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"patientUuid":   patientUUID,
			"orderTypeUuid": orderTypeUUID,
			"v":             "full",
		}).
		SetResult(&page).
		Get("/order")
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", patientUUID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list orders for %s: status %d", patientUUID, resp.StatusCode())
	}
	return page.Results, nil
}
