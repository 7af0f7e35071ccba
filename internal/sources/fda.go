// Package sources provides clients for external food safety data sources.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jsedoc/fish-rankings/internal/storage"
)

const (
	fdaDefaultBaseURL  = "https://api.fda.gov"
	fdaEnforcementPath = "/food/enforcement.json"
	fdaMaxLimit        = 1000
	fdaDateLayout      = "20060102"
)

// FDAConfig holds openFDA client settings.
type FDAConfig struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// FDAClient fetches food enforcement reports from openFDA.
type FDAClient struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	now        func() time.Time
}

// NewFDAClient creates an openFDA client.
func NewFDAClient(cfg FDAConfig) *FDAClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = fdaDefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &FDAClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		httpClient: client,
		now:        time.Now,
	}
}

type fdaResponse struct {
	Results []fdaRecall `json:"results"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type fdaRecall struct {
	RecallNumber         string `json:"recall_number"`
	ProductDescription   string `json:"product_description"`
	ReasonForRecall      string `json:"reason_for_recall"`
	RecallInitiationDate string `json:"recall_initiation_date"`
	ReportDate           string `json:"report_date"`
	RecallingFirm        string `json:"recalling_firm"`
	DistributionPattern  string `json:"distribution_pattern"`
	ProductQuantity      string `json:"product_quantity"`
	Status               string `json:"status"`
	Classification       string `json:"classification"`
	City                 string `json:"city"`
	State                string `json:"state"`
	Country              string `json:"country"`
	EventID              string `json:"event_id"`
}

// FetchRecent returns recalls reported in the last days days, newest first.
func (c *FDAClient) FetchRecent(ctx context.Context, days, limit int) ([]*storage.Recall, error) {
	end := c.now().UTC()
	start := end.AddDate(0, 0, -days)
	search := fmt.Sprintf("report_date:[%s TO %s]", start.Format(fdaDateLayout), end.Format(fdaDateLayout))
	return c.fetch(ctx, search, clampLimit(limit), true)
}

// SearchByProduct returns recalls whose product description matches name.
func (c *FDAClient) SearchByProduct(ctx context.Context, name string) ([]*storage.Recall, error) {
	search := fmt.Sprintf("product_description:%q", name)
	return c.fetch(ctx, search, 100, true)
}

// GetByNumber returns one recall, or nil when openFDA has no such recall.
func (c *FDAClient) GetByNumber(ctx context.Context, number string) (*storage.Recall, error) {
	recalls, err := c.fetch(ctx, fmt.Sprintf("recall_number:%q", number), 1, false)
	if err != nil || len(recalls) == 0 {
		return nil, err
	}
	return recalls[0], nil
}

func (c *FDAClient) fetch(ctx context.Context, search string, limit int, sorted bool) ([]*storage.Recall, error) {
	params := url.Values{}
	params.Set("search", search)
	params.Set("limit", fmt.Sprintf("%d", limit))
	if sorted {
		params.Set("sort", "report_date:desc")
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+fdaEnforcementPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch openFDA: %w", err)
	}
	defer resp.Body.Close()

	// openFDA answers an empty search with 404 NOT_FOUND
	if resp.StatusCode == http.StatusNotFound {
		return []*storage.Recall{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("openFDA returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload fdaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openFDA response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("openFDA error %s: %s", payload.Error.Code, payload.Error.Message)
	}

	recalls := make([]*storage.Recall, 0, len(payload.Results))
	for _, raw := range payload.Results {
		recalls = append(recalls, raw.toRecall())
	}
	return recalls, nil
}

func (r fdaRecall) toRecall() *storage.Recall {
	return &storage.Recall{
		RecallNumber:        r.RecallNumber,
		ProductDescription:  r.ProductDescription,
		ReasonForRecall:     r.ReasonForRecall,
		Classification:      storage.Classification(r.Classification),
		CompanyName:         r.RecallingFirm,
		Status:              r.Status,
		City:                r.City,
		State:               r.State,
		Country:             r.Country,
		DistributionPattern: r.DistributionPattern,
		ProductQuantity:     r.ProductQuantity,
		EventID:             r.EventID,
		RecallDate:          parseFDADate(r.RecallInitiationDate),
		ReportDate:          parseFDADate(r.ReportDate),
	}
}

// parseFDADate parses a YYYYMMDD date, returning nil when absent or malformed.
func parseFDADate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(fdaDateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > fdaMaxLimit {
		return fdaMaxLimit
	}
	return limit
}
