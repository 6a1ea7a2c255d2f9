package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/omara/internal/classify"
	"github.com/erazemk/omara/internal/imaging"
)

// ClassifyHandler proposes item fields for a photo.
type ClassifyHandler struct {
	Classifier *classify.Client
}

type classifyResponse struct {
	Suggestion *classify.Suggestion `json:"suggestion"`
	Reason     string               `json:"reason,omitempty"`
}

// Classify handles POST /api/classify. Every classifier failure is answered
// with a null suggestion; the user can always fill the fields in by hand.
func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	if !h.Classifier.Enabled() {
		jsonResponse(w, http.StatusOK, classifyResponse{Reason: classify.ErrDisabled.Error()})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image must be JPEG or PNG")
		return
	}

	s := GetSession(r.Context())
	suggestion, err := h.Classifier.Classify(r.Context(), processed.Data, processed.MIME)
	if err != nil {
		reason := classify.ErrNoSuggestion.Error()
		if !errors.Is(err, classify.ErrNoSuggestion) {
			slog.Warn("image classification failed", "user", s.User, "error", err)
		}
		jsonResponse(w, http.StatusOK, classifyResponse{Reason: reason})
		return
	}

	jsonResponse(w, http.StatusOK, classifyResponse{Suggestion: &suggestion})
}
