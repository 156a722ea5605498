package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FluHandler serves the normalized FluView feed
type FluHandler struct {
	flu    FluProvider
	logger *zap.SugaredLogger
}

// NewFluHandler creates a new flu handler
func NewFluHandler(flu FluProvider, logger *zap.SugaredLogger) *FluHandler {
	return &FluHandler{flu: flu, logger: logger}
}

// Data handles GET /flu/data/{state}/{range}
func (h *FluHandler) Data(w http.ResponseWriter, r *http.Request) {
	data, err := h.flu.Data(r.Context(), chi.URLParam(r, "state"), chi.URLParam(r, "range"))
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

// Trends handles GET /flu/trends/{state}
func (h *FluHandler) Trends(w http.ResponseWriter, r *http.Request) {
	trends, err := h.flu.Trends(r.Context(), chi.URLParam(r, "state"))
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, trends)
}

// CovidHandler serves the COVIDcast confirmed-case series
type CovidHandler struct {
	covid  CovidProvider
	logger *zap.SugaredLogger
}

// NewCovidHandler creates a new COVID handler
func NewCovidHandler(covid CovidProvider, logger *zap.SugaredLogger) *CovidHandler {
	return &CovidHandler{covid: covid, logger: logger}
}

// Data handles GET /covid/{state}/{range}
func (h *CovidHandler) Data(w http.ResponseWriter, r *http.Request) {
	data, err := h.covid.Data(r.Context(), chi.URLParam(r, "state"), chi.URLParam(r, "range"))
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}
