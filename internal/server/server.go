package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/alfagnish/itemsvc/internal/config"
	"github.com/alfagnish/itemsvc/internal/feed"
	"github.com/alfagnish/itemsvc/internal/handlers"
	"github.com/alfagnish/itemsvc/internal/items"
	reqid "github.com/alfagnish/itemsvc/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// New creates a fully-configured chi router with all route groups,
// middleware, and handlers wired together.
func New(cfg *config.Config, store *items.Store, hub *feed.Hub) http.Handler {
	r := chi.NewRouter()

	// ── Middleware ───────────────────────────────────────────
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{reqid.HeaderRequestID},
		MaxAge:         300,
	}))
	r.Use(reqid.RequestID)
	r.Use(requestLogger(cfg.Debug()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// ── Handlers ────────────────────────────────────────────
	homeH := handlers.NewHomeHandler(cfg, store)
	itemsH := handlers.NewItemsHandler(store)
	systemH := handlers.NewSystemHandler(cfg, store, hub)
	wsH := handlers.NewWSHandler(hub)

	// ── Routes ──────────────────────────────────────────────
	r.Method(http.MethodGet, "/", homeH)
	r.Route("/api/items", itemsH.Routes)
	r.Route("/api/system", systemH.Routes)
	r.Route("/api/ws", wsH.Routes)

	return r
}

// requestLogger logs each HTTP request with method, path, status code,
// duration and request id. Outside development only API requests are
// logged.
func requestLogger(all bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			if !all && !strings.HasPrefix(r.URL.Path, "/api/") {
				return
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Printf("%s %s %d %s request_id=%s",
				r.Method,
				r.URL.Path,
				status,
				time.Since(start).Round(time.Millisecond),
				reqid.RequestIDFromContext(r.Context()),
			)
		})
	}
}
