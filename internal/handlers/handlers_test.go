package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alfagnish/itemsvc/internal/config"
	"github.com/alfagnish/itemsvc/internal/feed"
	"github.com/alfagnish/itemsvc/internal/items"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

func TestCreateRejectsOversizedBody(t *testing.T) {
	store := items.NewStore(nil)
	h := NewItemsHandler(store)

	body := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
	if store.Len() != 3 {
		t.Fatalf("store mutated: %d", store.Len())
	}
}

func TestCreateWithoutContentType(t *testing.T) {
	store := items.NewStore(nil)
	h := NewItemsHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Foo"}`))
	w := httptest.NewRecorder()
	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestHomeRendersEmptyStore(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("FLASK_ENV", "")
	h := NewHomeHandler(config.Load(nil), items.NewStoreWith(nil, nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, `class="item"`) {
		t.Fatalf("empty store should render no items")
	}
	if !strings.Contains(body, "Environment: production") {
		t.Fatalf("missing environment label")
	}
}

func TestHealthCountsWatchers(t *testing.T) {
	hub := feed.NewHub(0)
	defer hub.Close()
	_, _, cancel := hub.Subscribe()
	defer cancel()

	h := NewSystemHandler(config.Load(nil), items.NewStore(hub), hub)
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Watchers != 1 || body.Items != 3 {
		t.Fatalf("got %+v", body)
	}
}

func TestWatchItems(t *testing.T) {
	hub := feed.NewHub(0)
	store := items.NewStore(hub)

	r := chi.NewRouter()
	r.Route("/api/ws", NewWSHandler(hub).Routes)
	ts := httptest.NewServer(r)
	defer ts.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/items"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("websocket never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	created := store.Append("Foo", nil)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var evt wsEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if evt.Type != "item_created" || evt.Item == nil || *evt.Item != created {
		t.Fatalf("got %+v", evt)
	}
}

func TestWatchItemsClosedOnShutdown(t *testing.T) {
	hub := feed.NewHub(0)

	r := chi.NewRouter()
	r.Route("/api/ws", NewWSHandler(hub).Routes)
	ts := httptest.NewServer(r)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws/items"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("websocket never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close, got %v", err)
	}
}
