package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jsedoc/fish-rankings/internal/cache"
	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/sources"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

const barcodeRecallLimit = 5

// ProductLookup finds packaged products by barcode or search terms.
type ProductLookup interface {
	GetByBarcode(ctx context.Context, code string) (*sources.Product, error)
	SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*sources.Product, error)
}

// BarcodeHandler resolves scanned barcodes to products and related recalls.
type BarcodeHandler struct {
	logger   *observability.Logger
	foods    *storage.FoodRepository
	recalls  *storage.RecallRepository
	products ProductLookup
	cache    cache.Client
	ttl      time.Duration
}

// NewBarcodeHandler creates a new barcode handler. Remote lookups are cached for ttl.
func NewBarcodeHandler(logger *observability.Logger, foods *storage.FoodRepository, recalls *storage.RecallRepository,
	products ProductLookup, c cache.Client, ttl time.Duration) *BarcodeHandler {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &BarcodeHandler{logger: logger, foods: foods, recalls: recalls, products: products, cache: c, ttl: ttl}
}

// BarcodeRecallDTO is a recall matched to a scanned product.
type BarcodeRecallDTO struct {
	RecallNumber   string     `json:"recall_number"`
	Reason         string     `json:"reason"`
	Classification string     `json:"classification"`
	Date           *time.Time `json:"date,omitempty"`
}

// BarcodeLookupDTO is the result of a barcode lookup.
type BarcodeLookupDTO struct {
	Source           string             `json:"source"`
	Found            bool               `json:"found"`
	Barcode          string             `json:"barcode"`
	Food             *storage.Food      `json:"food,omitempty"`
	Product          *sources.Product   `json:"product,omitempty"`
	Recalls          []BarcodeRecallDTO `json:"recalls"`
	RecallCount      int                `json:"recall_count"`
	HasActiveRecalls bool               `json:"has_active_recalls"`
	Message          string             `json:"message,omitempty"`
}

// Lookup handles GET /barcode/lookup/{barcode}.
func (h *BarcodeHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := sources.CleanBarcode(chi.URLParam(r, "barcode"))
	if code == "" {
		writeError(w, h.logger, domain.InvalidInput("barcode is required"))
		return
	}

	food, err := h.foods.GetByBarcode(ctx, code)
	switch {
	case err == nil:
		h.respond(w, r, BarcodeLookupDTO{Source: "database", Found: true, Barcode: code, Food: food}, food.Name)
		return
	case !errors.Is(err, storage.ErrNotFound):
		writeError(w, h.logger, err)
		return
	}

	product, err := h.lookupRemote(ctx, code)
	if err != nil {
		writeError(w, h.logger, domain.NewError(domain.KindBackendFailure, "product lookup failed", err))
		return
	}
	if product == nil {
		writeJSON(w, http.StatusOK, BarcodeLookupDTO{
			Source:  "openfoodfacts",
			Barcode: code,
			Recalls: []BarcodeRecallDTO{},
			Message: "Product not found in Open Food Facts database",
		})
		return
	}
	h.respond(w, r, BarcodeLookupDTO{Source: "openfoodfacts", Found: true, Barcode: code, Product: product}, product.Name)
}

func (h *BarcodeHandler) respond(w http.ResponseWriter, r *http.Request, dto BarcodeLookupDTO, name string) {
	dto.Recalls = []BarcodeRecallDTO{}
	if name != "" {
		recalls, err := h.recalls.SearchText(r.Context(), name, barcodeRecallLimit)
		if err != nil {
			h.logger.Warn().Err(err).Str("barcode", dto.Barcode).Msg("Recall match failed")
		}
		for _, rc := range recalls {
			dto.Recalls = append(dto.Recalls, BarcodeRecallDTO{
				RecallNumber:   rc.RecallNumber,
				Reason:         rc.ReasonForRecall,
				Classification: string(rc.Classification),
				Date:           rc.RecallDate,
			})
		}
	}
	dto.RecallCount = len(dto.Recalls)
	dto.HasActiveRecalls = dto.RecallCount > 0
	writeJSON(w, http.StatusOK, dto)
}

// lookupRemote consults the cache before Open Food Facts. Misses are not cached.
func (h *BarcodeHandler) lookupRemote(ctx context.Context, code string) (*sources.Product, error) {
	key := cache.BarcodeKey(code)
	var cached sources.Product
	err := cache.GetJSON(ctx, h.cache, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		h.logger.Warn().Err(err).Str("barcode", code).Msg("Barcode cache read failed")
	}

	product, err := h.products.GetByBarcode(ctx, code)
	if err != nil || product == nil {
		return product, err
	}
	if err := cache.SetJSON(ctx, h.cache, key, product, h.ttl); err != nil {
		h.logger.Warn().Err(err).Str("barcode", code).Msg("Barcode cache write failed")
	}
	return product, nil
}

// ProductSearchDTO is a page of Open Food Facts search results.
type ProductSearchDTO struct {
	Query    string             `json:"query"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Results  []*sources.Product `json:"results"`
	Count    int                `json:"count"`
}

// ImportDTO is the result of importing a product into the food catalog.
type ImportDTO struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	FoodID  string           `json:"food_id"`
	Slug    string           `json:"slug,omitempty"`
	Product *sources.Product `json:"product,omitempty"`
}

// Search handles GET /barcode/search.
func (h *BarcodeHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(q)) < 2 {
		writeError(w, h.logger, domain.InvalidInput("q must be at least 2 characters"))
		return
	}
	page, err := intParam(r, "page", 1, 1, 1<<20)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	pageSize, err := intParam(r, "page_size", 10, 1, 50)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	products, err := h.products.SearchProducts(r.Context(), q, page, pageSize)
	if err != nil {
		writeError(w, h.logger, domain.NewError(domain.KindBackendFailure, "product search failed", err))
		return
	}
	writeJSON(w, http.StatusOK, ProductSearchDTO{Query: q, Page: page, PageSize: pageSize, Results: products, Count: len(products)})
}

// Import handles POST /barcode/import/{barcode}, adding an Open Food Facts
// product to the food catalog under an optional ?category_id. A barcode that
// is already cataloged is not imported again.
func (h *BarcodeHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := sources.CleanBarcode(chi.URLParam(r, "barcode"))
	if code == "" {
		writeError(w, h.logger, domain.InvalidInput("barcode is required"))
		return
	}

	var categoryID *int
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, h.logger, domain.InvalidInput("category_id must be an integer"))
			return
		}
		categoryID = &id
	}

	existing, err := h.foods.GetByBarcode(ctx, code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ImportDTO{Message: "Product already exists in database", FoodID: existing.ID.String(), Slug: existing.Slug})
		return
	case !errors.Is(err, storage.ErrNotFound):
		writeError(w, h.logger, err)
		return
	}

	product, err := h.lookupRemote(ctx, code)
	if err != nil {
		writeError(w, h.logger, domain.NewError(domain.KindBackendFailure, "product lookup failed", err))
		return
	}
	if product == nil {
		writeError(w, h.logger, domain.NotFound("Product not found in Open Food Facts"))
		return
	}

	slug, err := h.foods.UniqueSlug(ctx, storage.Slugify(product.Name))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	food := &storage.Food{
		Name:        product.Name,
		Slug:        slug,
		CommonNames: storage.StringList{},
		Description: importDescription(product),
		ImageURL:    product.ImageURL,
		Barcode:     code,
		CategoryID:  categoryID,
	}
	if err := h.foods.Create(ctx, food); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info().Str("barcode", code).Str("food_id", food.ID.String()).Msg("Imported product")
	writeJSON(w, http.StatusCreated, ImportDTO{
		Success: true,
		Message: "Successfully imported " + product.Name,
		FoodID:  food.ID.String(),
		Slug:    food.Slug,
		Product: product,
	})
}

// NutriscoreInfo handles GET /barcode/info/nutriscore/{grade}.
func (h *BarcodeHandler) NutriscoreInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sources.NutriscoreInfo(chi.URLParam(r, "grade")))
}

// NovaInfo handles GET /barcode/info/nova/{group}.
func (h *BarcodeHandler) NovaInfo(w http.ResponseWriter, r *http.Request) {
	group, err := strconv.Atoi(chi.URLParam(r, "group"))
	info, ok := sources.NovaInfo(group)
	if err != nil || !ok {
		writeError(w, h.logger, domain.InvalidInput("NOVA group must be between 1 and 4"))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func importDescription(p *sources.Product) string {
	if p.Ingredients != "" {
		return p.Ingredients
	}
	return strings.Join(p.Categories, ", ")
}
