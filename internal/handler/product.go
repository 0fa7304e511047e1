package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banca-api/internal/model"
	"banca-api/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
	logger         *logrus.Logger
}

func NewProductHandler(productService *service.ProductService, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{productService: productService, logger: logger}
}

func (h *ProductHandler) RegisterRoutes(router *mux.Router) {
	adminOnly := RequireRoles(h.logger, model.RoleAdminGlobal)

	router.HandleFunc("", h.ListProducts).Methods("GET")
	router.Handle("", adminOnly(http.HandlerFunc(h.CreateProduct))).Methods("POST")
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.ListProducts(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"products": products})
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"message": "producto creado exitosamente",
		"product": product,
	})
}
