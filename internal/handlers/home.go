package handlers

import (
	"bytes"
	_ "embed"
	"html/template"
	"log"
	"net/http"

	"github.com/alfagnish/itemsvc/internal/config"
	"github.com/alfagnish/itemsvc/internal/items"
)

//go:embed templates/home.html
var homeHTML string

var homeTemplate = template.Must(template.New("home").Parse(homeHTML))

// homeData is the value the home template is executed with.
type homeData struct {
	Items       []items.Item
	Environment string
}

// HomeHandler renders the HTML status page.
type HomeHandler struct {
	cfg   *config.Config
	store *items.Store
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(cfg *config.Config, store *items.Store) *HomeHandler {
	return &HomeHandler{cfg: cfg, store: store}
}

// ServeHTTP renders every item and the current environment label.
func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := homeTemplate.Execute(&buf, homeData{
		Items:       h.store.List(),
		Environment: h.cfg.Environment(),
	})
	if err != nil {
		log.Printf("render home: %v", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
