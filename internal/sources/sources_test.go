package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsedoc/fish-rankings/internal/storage"
)

const fdaBody = `{"meta":{},"results":[{
	"recall_number":"F-0123-2024","product_description":"Smoked salmon 8oz",
	"reason_for_recall":"Listeria monocytogenes","recall_initiation_date":"20240105",
	"report_date":"20240110","recalling_firm":"Fjord Foods","status":"Ongoing",
	"classification":"Class I","city":"Seattle","state":"WA","country":"United States",
	"distribution_pattern":"Nationwide","product_quantity":"1,200 units","event_id":"93012"}]}`

func TestFDAClient_FetchRecent(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/food/enforcement.json", r.URL.Path)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		gotQuery = r.URL.RawQuery
		q := r.URL.Query()
		assert.Equal(t, "report_date:[20240301 TO 20240331]", q.Get("search"))
		assert.Equal(t, "1000", q.Get("limit"))
		assert.Equal(t, "report_date:desc", q.Get("sort"))
		w.Write([]byte(fdaBody))
	}))
	defer srv.Close()

	c := NewFDAClient(FDAConfig{BaseURL: srv.URL, UserAgent: "test-agent"})
	c.now = func() time.Time { return time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC) }

	recalls, err := c.FetchRecent(context.Background(), 30, 5000)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "+TO+")
	require.Len(t, recalls, 1)

	r := recalls[0]
	assert.Equal(t, "F-0123-2024", r.RecallNumber)
	assert.Equal(t, "Fjord Foods", r.CompanyName)
	assert.Equal(t, storage.ClassI, r.Classification)
	assert.Equal(t, "WA", r.State)
	require.NotNil(t, r.RecallDate)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), *r.RecallDate)
	require.NotNil(t, r.ReportDate)
	assert.Equal(t, 10, r.ReportDate.Day())
}

func TestFDAClient_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"No matches found!"}}`))
	}))
	defer srv.Close()

	c := NewFDAClient(FDAConfig{BaseURL: srv.URL})
	recalls, err := c.SearchByProduct(context.Background(), "unobtainium")
	require.NoError(t, err)
	assert.Empty(t, recalls)

	recall, err := c.GetByNumber(context.Background(), "F-0000-2024")
	require.NoError(t, err)
	assert.Nil(t, recall)
}

func TestFDAClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewFDAClient(FDAConfig{BaseURL: srv.URL})
	_, err := c.FetchRecent(context.Background(), 7, 10)
	assert.Error(t, err)
}

func TestFDAClient_GetByNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `recall_number:"F-0123-2024"`, r.URL.Query().Get("search"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Empty(t, r.URL.Query().Get("sort"))
		w.Write([]byte(fdaBody))
	}))
	defer srv.Close()

	c := NewFDAClient(FDAConfig{BaseURL: srv.URL, APIKey: "k"})
	recall, err := c.GetByNumber(context.Background(), "F-0123-2024")
	require.NoError(t, err)
	require.NotNil(t, recall)
	assert.Equal(t, "Smoked salmon 8oz", recall.ProductDescription)
}

func TestParseFDADate(t *testing.T) {
	assert.Nil(t, parseFDADate(""))
	assert.Nil(t, parseFDADate("2024-01-01"))
	require.NotNil(t, parseFDADate("20231231"))
}

const offBody = `{"status":1,"code":"5449000000996","product":{
	"product_name":"Coca-Cola","brands":"Coca-Cola","categories":"Beverages, Sodas ,",
	"ingredients_text":"Carbonated water, sugar","allergens_tags":["en:gluten-free","en:milk"],
	"nutriscore_grade":"e","nova_group":"4","ecoscore_grade":"d",
	"image_front_url":"https://img/front.jpg","labels_tags":["en:vegan"],
	"nutriments":{"energy-kcal_100g":42,"sugars_100g":"10.6","fat_100g":0}}}`

func TestOpenFoodFactsClient_GetByBarcode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/5449000000996.json", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(offBody))
	}))
	defer srv.Close()

	c := NewOpenFoodFactsClient(OpenFoodFactsConfig{BaseURL: srv.URL})
	p, err := c.GetByBarcode(context.Background(), "5449-0000 00996")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "5449000000996", p.Barcode)
	assert.Equal(t, "Coca-Cola Coca-Cola", p.Name)
	assert.Equal(t, []string{"Beverages", "Sodas"}, p.Categories)
	assert.Equal(t, []string{"Gluten Free", "Milk"}, p.Allergens)
	assert.Equal(t, "E", p.NutriscoreGrade)
	assert.Equal(t, "D", p.EcoscoreGrade)
	require.NotNil(t, p.NovaGroup)
	assert.Equal(t, 4, *p.NovaGroup)
	assert.Equal(t, "https://img/front.jpg", p.ImageURL)
	require.NotNil(t, p.Nutrients.EnergyKcal)
	assert.Equal(t, 42.0, *p.Nutrients.EnergyKcal)
	require.NotNil(t, p.Nutrients.Sugars)
	assert.Equal(t, 10.6, *p.Nutrients.Sugars)
	assert.Nil(t, p.Nutrients.Sodium)
	assert.Equal(t, srv.URL+"/product/5449000000996", p.OpenFoodFactsURL)
}

func TestOpenFoodFactsClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/product/404.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
	}))
	defer srv.Close()

	c := NewOpenFoodFactsClient(OpenFoodFactsConfig{BaseURL: srv.URL})
	for _, code := range []string{"000", "404", " - "} {
		p, err := c.GetByBarcode(context.Background(), code)
		require.NoError(t, err, code)
		assert.Nil(t, p, code)
	}
}

func TestHumanizeTag(t *testing.T) {
	assert.Equal(t, "Gluten Free", humanizeTag("en:gluten-free"))
	assert.Equal(t, "Soybeans", humanizeTag("SOYBEANS"))
	assert.Equal(t, "", humanizeTag("en:"))
}

func TestOpenFoodFactsClient_SearchProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/search", r.URL.Path)
		assert.Equal(t, "tuna", r.URL.Query().Get("search_terms"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("page_size"))
		w.Write([]byte(`{"products":[
			{"code":"111","product_name":"Tuna in Water","nutriscore_grade":"a","nova_group":3},
			{"product_name":"No Code"}]}`))
	}))
	defer srv.Close()

	c := NewOpenFoodFactsClient(OpenFoodFactsConfig{BaseURL: srv.URL})
	products, err := c.SearchProducts(context.Background(), "tuna", 2, 5)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "111", products[0].Barcode)
	assert.Equal(t, "Tuna in Water", products[0].Name)
	assert.Equal(t, "A", products[0].NutriscoreGrade)
}

func TestGradeInfo(t *testing.T) {
	assert.Equal(t, "dark-green", NutriscoreInfo("a").Color)
	assert.Equal(t, "Not Rated", NutriscoreInfo("Z").Label)

	info, ok := NovaInfo(4)
	require.True(t, ok)
	assert.Equal(t, "Ultra-Processed Foods", info.Label)
	_, ok = NovaInfo(5)
	assert.False(t, ok)
}
