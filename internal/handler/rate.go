package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banca-api/internal/service"
)

type RateHandler struct {
	banguatClient *service.BanguatClient
	logger        *logrus.Logger
}

func NewRateHandler(banguatClient *service.BanguatClient, logger *logrus.Logger) *RateHandler {
	return &RateHandler{banguatClient: banguatClient, logger: logger}
}

func (h *RateHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", h.GetReferenceRate).Methods("GET")
}

// GetReferenceRate returns the day's GTQ-per-USD rate from Banguat.
func (h *RateHandler) GetReferenceRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.banguatClient.GetReferenceRate(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "no se pudo obtener el tipo de cambio")
		return
	}
	respond(w, http.StatusOK, map[string]any{"rate": rate})
}
