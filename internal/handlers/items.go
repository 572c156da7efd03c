package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/alfagnish/itemsvc/internal/items"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps the size of a create request body.
const maxBodyBytes = 1 << 20

// ItemsHandler serves the JSON item API.
type ItemsHandler struct {
	store *items.Store
}

// NewItemsHandler creates a new ItemsHandler.
func NewItemsHandler(store *items.Store) *ItemsHandler {
	return &ItemsHandler{store: store}
}

// Routes registers the item routes on the given chi router. Ids that are
// not digit strings never match and fall through to the router's 404.
func (h *ItemsHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id:[0-9]+}", h.Get)
}

// List returns every item in store order.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

// Get returns a single item by id.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		// Out of int64 range; treated like any other unroutable id.
		http.NotFound(w, r)
		return
	}

	it, ok := h.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// createItemRequest uses pointers so a missing key can be told apart from a
// zero value.
type createItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

var errInvalidRequest = errors.New(msgInvalidRequest)

// Create appends a new item built from the JSON body.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	it := h.store.Append(*req.Name, req.Description)
	writeJSON(w, http.StatusCreated, it)
}

// decodeCreateRequest rejects a missing or malformed body first, then a
// body without a usable name.
func decodeCreateRequest(w http.ResponseWriter, r *http.Request) (*createItemRequest, error) {
	if r.Body == nil {
		return nil, errInvalidRequest
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	var req createItemRequest
	if err := dec.Decode(&req); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errInvalidRequest
	}
	if req.Name == nil || *req.Name == "" {
		return nil, errInvalidRequest
	}
	return &req, nil
}
