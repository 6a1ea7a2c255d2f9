package api

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/recommend"
)

// OutfitHandler handles recommendations, the weather and the duplicate
// checker.
type OutfitHandler struct{}

type outfitResponse struct {
	recommend.Outfit
	WeatherFallback bool `json:"weather_fallback"`
}

type noOutfitResponse struct {
	Error           string  `json:"error"`
	Temperature     float64 `json:"temperature"`
	WeatherFallback bool    `json:"weather_fallback"`
}

// Outfit handles GET /api/outfit. An optional temp parameter overrides the
// weather lookup.
func (h *OutfitHandler) Outfit(w http.ResponseWriter, r *http.Request) {
	var override *float64
	if raw := r.URL.Query().Get("temp"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
			jsonError(w, http.StatusBadRequest, "temp must be a number")
			return
		}
		override = &t
	}

	s := GetSession(r.Context())
	rec, err := s.Recommend(r.Context(), override)
	if errors.Is(err, recommend.ErrNoCombination) {
		jsonResponse(w, http.StatusUnprocessableEntity, noOutfitResponse{
			Error:           err.Error(),
			Temperature:     rec.Reading.Celsius,
			WeatherFallback: rec.Reading.Fallback,
		})
		return
	}
	if err != nil {
		slog.Error("failed to recommend outfit", "user", s.User, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to recommend outfit")
		return
	}

	jsonResponse(w, http.StatusOK, outfitResponse{Outfit: rec.Outfit, WeatherFallback: rec.Reading.Fallback})
}

// Weather handles GET /api/weather.
func (h *OutfitHandler) Weather(w http.ResponseWriter, r *http.Request) {
	reading := GetSession(r.Context()).Weather(r.Context())

	resp := map[string]any{
		"temperature": reading.Celsius,
		"fallback":    reading.Fallback,
	}
	if reading.Err != nil {
		resp["reason"] = reading.Err.Error()
	}
	jsonResponse(w, http.StatusOK, resp)
}

type similarResponse struct {
	Query   string       `json:"query"`
	Matches []model.Item `json:"matches"`
}

// Similar handles GET /api/similar.
func (h *OutfitHandler) Similar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	jsonResponse(w, http.StatusOK, similarResponse{
		Query:   q,
		Matches: GetSession(r.Context()).FindSimilar(q),
	})
}
