// Package foodsafety provides the public Go SDK for the food safety API.
package foodsafety

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the public SDK client for the food safety API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL string
	// Token is an optional bearer token; anonymous queries are rate limited.
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new food safety API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
	}, nil
}

// APIError is a non-2xx reply from the API.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("foodsafety api: %d %s: %s", e.StatusCode, e.Code, e.Detail)
	}
	return fmt.Sprintf("foodsafety api: status %d", e.StatusCode)
}

// QueryRequest represents a natural-language query.
type QueryRequest struct {
	Query   string `json:"query"`
	Context string `json:"context,omitempty"`
}

// Food is a catalog entry returned as a query source.
type Food struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	CommonNames []string `json:"common_names"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url,omitempty"`
	Barcode     string   `json:"barcode,omitempty"`
}

// Recall summarizes a recall related to the question.
type Recall struct {
	RecallNumber   string `json:"recall_number"`
	Product        string `json:"product"`
	Reason         string `json:"reason"`
	Classification string `json:"classification"`
	Company        string `json:"company"`
}

// Advisory summarizes a state consumption advisory.
type Advisory struct {
	State            string `json:"state"`
	FishSpecies      string `json:"fish_species"`
	Waterbody        string `json:"waterbody"`
	Contaminant      string `json:"contaminant"`
	AdvisoryLevel    string `json:"advisory_level"`
	ConsumptionLimit string `json:"consumption_limit"`
}

// QueryResponse is the grounded answer and the records it drew on.
type QueryResponse struct {
	Answer     string     `json:"answer"`
	Sources    []Food     `json:"sources"`
	Recalls    []Recall   `json:"recalls"`
	Advisories []Advisory `json:"advisories"`
}

// ExampleCategory groups sample questions.
type ExampleCategory struct {
	Category string   `json:"category"`
	Queries  []string `json:"queries"`
}

// ExamplesResponse is the sample question catalog.
type ExamplesResponse struct {
	Examples []ExampleCategory `json:"examples"`
	Tips     []string          `json:"tips"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Query asks a natural-language question.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	var resp QueryResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/llm/query", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Examples fetches the sample question catalog.
func (c *Client) Examples(ctx context.Context) (*ExamplesResponse, error) {
	var resp ExamplesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/llm/examples", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks the service health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, apiErr) != nil || apiErr.Detail == "" {
			apiErr.Detail = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
