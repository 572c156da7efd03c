package handlers

import (
	"net/http"

	"github.com/alfagnish/itemsvc/internal/config"
	"github.com/alfagnish/itemsvc/internal/feed"
	"github.com/alfagnish/itemsvc/internal/items"
	"github.com/go-chi/chi/v5"
)

// SystemHandler provides the health endpoint.
type SystemHandler struct {
	cfg   *config.Config
	store *items.Store
	hub   *feed.Hub
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(cfg *config.Config, store *items.Store, hub *feed.Hub) *SystemHandler {
	return &SystemHandler{cfg: cfg, store: store, hub: hub}
}

// Routes registers all system routes on the given chi router.
func (h *SystemHandler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
}

type healthResponse struct {
	Status      string `json:"status"`
	Items       int    `json:"items"`
	Environment string `json:"environment"`
	Watchers    int    `json:"watchers"`
}

// Health reports the item count, environment label and number of live
// watchers.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Items:       h.store.Len(),
		Environment: h.cfg.Environment(),
		Watchers:    h.hub.Count(),
	})
}
