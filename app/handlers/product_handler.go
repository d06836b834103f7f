package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gosimple/slug"
	"github.com/jdlcruz/go-hardwarepos/app/helpers"
	"github.com/jdlcruz/go-hardwarepos/app/models"
	"github.com/jdlcruz/go-hardwarepos/app/repositories"
	"github.com/jdlcruz/go-hardwarepos/app/services"
	"github.com/shopspring/decimal"
	"github.com/unrolled/render"
)

const defaultPageSize = 20

type ProductHandler struct {
	render      *render.Render
	validate    *validator.Validate
	productRepo repositories.ProductRepositoryImpl
	variantRepo repositories.VariantRepositoryImpl
}

func NewProductHandler(rnd *render.Render, validate *validator.Validate, productRepo repositories.ProductRepositoryImpl, variantRepo repositories.VariantRepositoryImpl) *ProductHandler {
	return &ProductHandler{
		render:      rnd,
		validate:    validate,
		productRepo: productRepo,
		variantRepo: variantRepo,
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * defaultPageSize

	keyword := r.URL.Query().Get("q")

	var (
		products []models.Product
		total    int64
		err      error
	)
	if keyword != "" {
		products, total, err = h.productRepo.SearchPaginated(r.Context(), keyword, defaultPageSize, offset)
	} else {
		products, total, err = h.productRepo.GetPaginated(r.Context(), defaultPageSize, offset)
	}
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}

	h.render.JSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
		"page":     page,
	})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.productRepo.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	if product == nil {
		h.render.JSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}
	h.render.JSON(w, http.StatusOK, product)
}

type createProductPayload struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	Image       string `json:"image"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createProductPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": helpers.FormatValidationErrors(err.(validator.ValidationErrors))})
		return
	}

	product := &models.Product{
		Name:        payload.Name,
		Slug:        slug.Make(payload.Name),
		Description: payload.Description,
		CategoryID:  payload.CategoryID,
		Image:       payload.Image,
	}
	if err := h.productRepo.Create(r.Context(), product); err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	h.render.JSON(w, http.StatusCreated, product)
}

type createVariantPayload struct {
	Unit               string `json:"unit" validate:"required"`
	Size               string `json:"size"`
	Dimension          string `json:"dimension"`
	DimensionType      string `json:"dimension_type"`
	Color              string `json:"color"`
	Price              string `json:"price" validate:"required"`
	SupplierPrice      string `json:"supplier_price"`
	Quantity           int    `json:"quantity" validate:"min=0"`
	LowStockThreshold  int    `json:"low_stock_threshold"`
	AutoConvert        bool   `json:"auto_convert"`
	ConversionSourceID string `json:"conversion_source_id"`
	ConversionQuantity int    `json:"conversion_quantity"`
}

func (h *ProductHandler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]

	product, err := h.productRepo.GetByID(r.Context(), productID)
	if err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	if product == nil {
		h.render.JSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}

	var payload createVariantPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": helpers.FormatValidationErrors(err.(validator.ValidationErrors))})
		return
	}

	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a decimal number"})
		return
	}
	supplierPrice := decimal.Zero
	if payload.SupplierPrice != "" {
		supplierPrice, err = decimal.NewFromString(payload.SupplierPrice)
		if err != nil {
			h.render.JSON(w, http.StatusBadRequest, map[string]string{"error": "supplier_price must be a decimal number"})
			return
		}
	}

	variant := &models.ProductVariant{
		ProductID:          productID,
		Unit:               payload.Unit,
		Size:               payload.Size,
		Dimension:          payload.Dimension,
		DimensionType:      payload.DimensionType,
		Color:              payload.Color,
		Price:              price,
		SupplierPrice:      supplierPrice,
		Quantity:           payload.Quantity,
		LowStockThreshold:  payload.LowStockThreshold,
		AutoConvert:        payload.AutoConvert,
		ConversionQuantity: payload.ConversionQuantity,
	}
	if variant.ConversionQuantity < 1 {
		variant.ConversionQuantity = 1
	}

	if payload.AutoConvert {
		if payload.ConversionSourceID == "" {
			h.render.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "conversion_source_id is required when auto_convert is set"})
			return
		}
		variant.ConversionSourceID = &payload.ConversionSourceID

		byID, err := h.variantRepo.GetByIDs(r.Context(), []string{payload.ConversionSourceID})
		if err != nil {
			writeServiceError(h.render, w, err)
			return
		}
		if err := services.ValidateConversionSource(variant, byID); err != nil {
			writeServiceError(h.render, w, err)
			return
		}
	}

	if err := h.variantRepo.Create(r.Context(), variant); err != nil {
		writeServiceError(h.render, w, err)
		return
	}
	h.render.JSON(w, http.StatusCreated, variant)
}
