package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const offDefaultBaseURL = "https://world.openfoodfacts.org"

// OpenFoodFactsConfig holds Open Food Facts client settings.
type OpenFoodFactsConfig struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OpenFoodFactsClient looks up packaged products by barcode.
type OpenFoodFactsClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// Nutrients are per-100g nutrition facts. Missing values are nil.
type Nutrients struct {
	EnergyKcal    *float64 `json:"energy_kcal"`
	Fat           *float64 `json:"fat"`
	SaturatedFat  *float64 `json:"saturated_fat"`
	Carbohydrates *float64 `json:"carbohydrates"`
	Sugars        *float64 `json:"sugars"`
	Fiber         *float64 `json:"fiber"`
	Proteins      *float64 `json:"proteins"`
	Salt          *float64 `json:"salt"`
	Sodium        *float64 `json:"sodium"`
}

// Product is a normalized Open Food Facts product.
type Product struct {
	Barcode          string    `json:"barcode"`
	Name             string    `json:"name"`
	Brands           string    `json:"brands,omitempty"`
	Categories       []string  `json:"categories"`
	Ingredients      string    `json:"ingredients,omitempty"`
	Allergens        []string  `json:"allergens"`
	NutriscoreGrade  string    `json:"nutriscore_grade,omitempty"`
	NovaGroup        *int      `json:"nova_group,omitempty"`
	EcoscoreGrade    string    `json:"ecoscore_grade,omitempty"`
	ImageURL         string    `json:"image_url,omitempty"`
	ServingSize      string    `json:"serving_size,omitempty"`
	Quantity         string    `json:"quantity,omitempty"`
	Labels           []string  `json:"labels,omitempty"`
	Nutrients        Nutrients `json:"nutrients"`
	OpenFoodFactsURL string    `json:"openfoodfacts_url"`
}

type offResponse struct {
	Status  int         `json:"status"`
	Product *offProduct `json:"product"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}

type offProduct struct {
	Code              string                 `json:"code"`
	ProductName       string                 `json:"product_name"`
	ProductNameEn     string                 `json:"product_name_en"`
	GenericName       string                 `json:"generic_name"`
	Brands            string                 `json:"brands"`
	Categories        string                 `json:"categories"`
	IngredientsText   string                 `json:"ingredients_text"`
	IngredientsTextEn string                 `json:"ingredients_text_en"`
	AllergensTags     []string               `json:"allergens_tags"`
	NutriscoreGrade   string                 `json:"nutriscore_grade"`
	NovaGroup         json.RawMessage        `json:"nova_group"`
	EcoscoreGrade     string                 `json:"ecoscore_grade"`
	ImageURL          string                 `json:"image_url"`
	ImageFrontURL     string                 `json:"image_front_url"`
	ImageSmallURL     string                 `json:"image_small_url"`
	ServingSize       string                 `json:"serving_size"`
	Quantity          string                 `json:"quantity"`
	LabelsTags        []string               `json:"labels_tags"`
	Nutriments        map[string]interface{} `json:"nutriments"`
}

// NewOpenFoodFactsClient creates an Open Food Facts client.
func NewOpenFoodFactsClient(cfg OpenFoodFactsConfig) *OpenFoodFactsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = offDefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "FoodSafetyPlatform/1.0"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenFoodFactsClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: client,
	}
}

// CleanBarcode removes spaces and dashes from a scanned code.
func CleanBarcode(code string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(code))
}

// GetByBarcode returns the product for code, or nil when it is unknown.
func (c *OpenFoodFactsClient) GetByBarcode(ctx context.Context, code string) (*Product, error) {
	code = CleanBarcode(code)
	if code == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/product/"+code+".json", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("open food facts returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload offResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", code, err)
	}
	if payload.Status != 1 || payload.Product == nil {
		return nil, nil
	}
	return payload.Product.normalize(code, c.baseURL), nil
}

const offSearchFields = "code,product_name,brands,categories,ingredients_text,nutriscore_grade,nova_group,ecoscore_grade"

// SearchProducts runs a full-text product search. page is 1-indexed.
func (c *OpenFoodFactsClient) SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*Product, error) {
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("fields", offSearchFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("open food facts returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload offSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}

	products := make([]*Product, 0, len(payload.Products))
	for i := range payload.Products {
		p := &payload.Products[i]
		if p.Code == "" {
			continue
		}
		products = append(products, p.normalize(p.Code, c.baseURL))
	}
	return products, nil
}

func (p *offProduct) normalize(code, baseURL string) *Product {
	name := firstNonEmpty(p.ProductName, p.ProductNameEn, p.GenericName, "Unknown Product")
	if p.Brands != "" {
		name = p.Brands + " " + name
	}

	var categories []string
	for _, c := range strings.Split(p.Categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}

	allergens := make([]string, 0, len(p.AllergensTags))
	for _, tag := range p.AllergensTags {
		allergens = append(allergens, humanizeTag(tag))
	}

	return &Product{
		Barcode:         code,
		Name:            strings.TrimSpace(name),
		Brands:          p.Brands,
		Categories:      categories,
		Ingredients:     firstNonEmpty(p.IngredientsText, p.IngredientsTextEn),
		Allergens:       allergens,
		NutriscoreGrade: strings.ToUpper(p.NutriscoreGrade),
		NovaGroup:       parseNovaGroup(p.NovaGroup),
		EcoscoreGrade:   strings.ToUpper(p.EcoscoreGrade),
		ImageURL:        firstNonEmpty(p.ImageURL, p.ImageFrontURL, p.ImageSmallURL),
		ServingSize:     p.ServingSize,
		Quantity:        p.Quantity,
		Labels:          p.LabelsTags,
		Nutrients: Nutrients{
			EnergyKcal:    nutriment(p.Nutriments, "energy-kcal_100g"),
			Fat:           nutriment(p.Nutriments, "fat_100g"),
			SaturatedFat:  nutriment(p.Nutriments, "saturated-fat_100g"),
			Carbohydrates: nutriment(p.Nutriments, "carbohydrates_100g"),
			Sugars:        nutriment(p.Nutriments, "sugars_100g"),
			Fiber:         nutriment(p.Nutriments, "fiber_100g"),
			Proteins:      nutriment(p.Nutriments, "proteins_100g"),
			Salt:          nutriment(p.Nutriments, "salt_100g"),
			Sodium:        nutriment(p.Nutriments, "sodium_100g"),
		},
		OpenFoodFactsURL: baseURL + "/product/" + code,
	}
}

// humanizeTag turns "en:gluten-free" into "Gluten Free".
func humanizeTag(tag string) string {
	if i := strings.Index(tag, ":"); i >= 0 {
		tag = tag[i+1:]
	}
	words := strings.Fields(strings.ReplaceAll(tag, "-", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// nutriment reads a numeric nutriment that may be encoded as a number or a string.
func nutriment(m map[string]interface{}, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

func parseNovaGroup(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	s := strings.Trim(string(raw), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
