package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/omara/internal/assets"
	"github.com/erazemk/omara/internal/imaging"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/wardrobe"
)

// maxUploadSize bounds image uploads.
const maxUploadSize = 5 << 20

// ItemsHandler handles item CRUD and image endpoints.
type ItemsHandler struct {
	Assets *assets.Manager
}

type createItemRequest struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Color    string   `json:"color"`
	Material string   `json:"material"`
	Tags     []string `json:"tags"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	s := GetSession(r.Context())
	jsonResponse(w, http.StatusOK, s.Items(r.URL.Query().Get("category")))
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s := GetSession(r.Context())
	item, err := s.AddItem(r.Context(), model.Item{
		Name:     req.Name,
		Category: req.Category,
		Color:    req.Color,
		Material: req.Material,
		Tags:     req.Tags,
	})
	if err != nil {
		itemError(w, err, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := GetSession(r.Context()).Item(r.PathValue("id"))
	if err != nil {
		itemError(w, err, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}. Omitted fields are left unchanged.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var fields wardrobe.ItemFields
	if err := decodeJSON(r, &fields); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Images change only through the image endpoint.
	fields.ImagePath = nil

	item, err := GetSession(r.Context()).UpdateItem(r.Context(), r.PathValue("id"), fields)
	if err != nil {
		itemError(w, err, "failed to update item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s := GetSession(r.Context())
	removed, err := s.RemoveItem(r.Context(), r.PathValue("id"))
	if err != nil {
		itemError(w, err, "failed to delete item")
		return
	}

	if removed.ImagePath != "" {
		if err := h.Assets.Delete(removed.ImagePath); err != nil {
			slog.Warn("failed to delete image", "user", s.User, "path", removed.ImagePath, "error", err)
		}
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	s := GetSession(r.Context())
	id := r.PathValue("id")
	if _, err := s.Item(id); err != nil {
		itemError(w, err, "failed to get item")
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

	// Validate format by sniffing bytes, downscale, keep the input format.
	processed, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image must be JPEG or PNG")
		return
	}

	assetID, err := h.Assets.Store(processed.Data, processed.Ext)
	if err != nil {
		slog.Error("failed to store image", "user", s.User, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	item, previous, err := s.SetItemImage(r.Context(), id, h.Assets.Path(assetID))
	if err != nil {
		if derr := h.Assets.Delete(assetID); derr != nil {
			slog.Warn("failed to delete unused image", "user", s.User, "asset", assetID, "error", derr)
		}
		itemError(w, err, "failed to save image")
		return
	}

	if previous != "" {
		if err := h.Assets.Delete(previous); err != nil {
			slog.Warn("failed to delete replaced image", "user", s.User, "path", previous, "error", err)
		}
	}

	jsonResponse(w, http.StatusOK, item)
}

// GetImage handles GET /api/items/{id}/image. A missing photo is answered
// with the placeholder image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	s := GetSession(r.Context())
	item, err := s.Item(r.PathValue("id"))
	if err != nil {
		itemError(w, err, "failed to get item")
		return
	}

	if item.ImagePath != "" {
		data, mime, err := h.Assets.Resolve(item.ImagePath)
		if err == nil {
			writeImage(w, data, mime, false)
			return
		}
		if errors.Is(err, assets.ErrNotFound) {
			slog.Warn("image missing, serving placeholder", "user", s.User, "item", item.ID, "path", item.ImagePath)
		} else {
			slog.Error("failed to read image", "user", s.User, "item", item.ID, "error", err)
		}
	}

	data, mime := assets.Placeholder()
	writeImage(w, data, mime, true)
}

func writeImage(w http.ResponseWriter, data []byte, mime string, placeholder bool) {
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if placeholder {
		w.Header().Set("X-Placeholder", "1")
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Cache-Control", "private, max-age=3600")
	}
	w.Write(data)
}
