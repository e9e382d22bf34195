// Package testsupport provides helpers shared by the package test suites: a
// fake backend speaking the dashboard's envelope protocol, and builders for
// fixture records.
package testsupport

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// FakeAPI is an in-process backend implementing the REST surface the data
// core talks to: list, get, create, update, status transition, and delete
// per resource family, all wrapped in the standard response envelope.
//
// Every seeded record is a map so tests can shape payloads freely; the data
// core only ever sees the JSON form.
type FakeAPI struct {
	server *httptest.Server

	mu        sync.Mutex
	records   map[string][]map[string]any
	listCalls map[string]int
	failures  map[string]apiFailure
	latency   time.Duration
	lastAuth  string
}

type apiFailure struct {
	status  int
	message string
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Meta    *meta  `json:"meta,omitempty"`
}

type meta struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

// NewFakeAPI starts the fake backend on a random local port. Callers must
// Close it when done.
func NewFakeAPI() *FakeAPI {
	f := &FakeAPI{
		records:   map[string][]map[string]any{},
		listCalls: map[string]int{},
		failures:  map[string]apiFailure{},
	}

	r := mux.NewRouter()
	r.Use(f.capture)
	r.HandleFunc("/{family}/all", f.handleList).Methods(http.MethodGet)
	r.HandleFunc("/{family}/update-status/{id}", f.handleStatus).Methods(http.MethodPut)
	r.HandleFunc("/{family}/{id}", f.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/{family}/{id}", f.handleUpdate).Methods(http.MethodPatch)
	r.HandleFunc("/{family}/{id}", f.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/{family}", f.handleCreate).Methods(http.MethodPost)

	f.server = httptest.NewServer(r)
	return f
}

// URL returns the backend base URL.
func (f *FakeAPI) URL() string { return f.server.URL }

// Close shuts the backend down.
func (f *FakeAPI) Close() { f.server.Close() }

// Seed replaces the records of one family.
func (f *FakeAPI) Seed(family string, records ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[family] = append([]map[string]any{}, records...)
}

// Records returns a copy of one family's current records.
func (f *FakeAPI) Records(family string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any{}, f.records[family]...)
}

// ListCalls reports how many list requests one family has served. Tests use
// it to prove that concurrent readers shared a single fetch.
func (f *FakeAPI) ListCalls(family string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[family]
}

// SetLatency delays every response by d, to widen race windows in tests.
func (f *FakeAPI) SetLatency(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latency = d
}

// FailWith makes every request against family fail with the given status and
// envelope message until ClearFailure is called.
func (f *FakeAPI) FailWith(family string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[family] = apiFailure{status: status, message: message}
}

// ClearFailure restores normal behavior for family.
func (f *FakeAPI) ClearFailure(family string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, family)
}

// LastAuthorization returns the Authorization header of the most recent
// request.
func (f *FakeAPI) LastAuthorization() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

func (f *FakeAPI) capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastAuth = r.Header.Get("Authorization")
		latency := f.latency
		f.mu.Unlock()
		if latency > 0 {
			time.Sleep(latency)
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) failureFor(family string) (apiFailure, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	failure, ok := f.failures[family]
	return failure, ok
}

func (f *FakeAPI) handleList(w http.ResponseWriter, r *http.Request) {
	family := mux.Vars(r)["family"]

	f.mu.Lock()
	f.listCalls[family]++
	f.mu.Unlock()

	if failure, ok := f.failureFor(family); ok {
		writeJSON(w, failure.status, envelope{Success: false, Message: failure.message})
		return
	}

	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), 10)
	status := q.Get("status")
	search := strings.ToLower(q.Get("search"))

	f.mu.Lock()
	matched := make([]map[string]any, 0, len(f.records[family]))
	for _, record := range f.records[family] {
		if status != "" && record["status"] != status {
			continue
		}
		if search != "" {
			name, _ := record["name"].(string)
			title, _ := record["title"].(string)
			if !strings.Contains(strings.ToLower(name), search) &&
				!strings.Contains(strings.ToLower(title), search) {
				continue
			}
		}
		matched = append(matched, record)
	}
	f.mu.Unlock()

	total := len(matched)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "retrieved successfully",
		Data:    matched[start:end],
		Meta:    &meta{Page: page, TotalPages: totalPages, Total: total},
	})
}

func (f *FakeAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	family, id := vars["family"], vars["id"]

	if failure, ok := f.failureFor(family); ok {
		writeJSON(w, failure.status, envelope{Success: false, Message: failure.message})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records[family] {
		if record["_id"] == id {
			writeJSON(w, http.StatusOK, envelope{Success: true, Data: record})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "record not found"})
}

func (f *FakeAPI) handleCreate(w http.ResponseWriter, r *http.Request) {
	family := mux.Vars(r)["family"]

	if failure, ok := f.failureFor(family); ok {
		writeJSON(w, failure.status, envelope{Success: false, Message: failure.message})
		return
	}

	record := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid payload"})
		return
	}
	if record["_id"] == nil {
		record["_id"] = NewID()
	}

	f.mu.Lock()
	f.records[family] = append(f.records[family], record)
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: "created successfully", Data: record})
}

func (f *FakeAPI) handleUpdate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	family, id := vars["family"], vars["id"]

	if failure, ok := f.failureFor(family); ok {
		writeJSON(w, failure.status, envelope{Success: false, Message: failure.message})
		return
	}

	patch := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid payload"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records[family] {
		if record["_id"] == id {
			for key, value := range patch {
				record[key] = value
			}
			writeJSON(w, http.StatusOK, envelope{Success: true, Message: "updated successfully", Data: record})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "record not found"})
}

func (f *FakeAPI) handleStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	family, id := vars["family"], vars["id"]

	if failure, ok := f.failureFor(family); ok {
		writeJSON(w, failure.status, envelope{Success: false, Message: failure.message})
		return
	}

	body := struct {
		Status string `json:"status"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "invalid status payload"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records[family] {
		if record["_id"] == id {
			record["status"] = body.Status
			writeJSON(w, http.StatusOK, envelope{Success: true, Message: "status updated", Data: record})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "record not found"})
}

func (f *FakeAPI) handleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	family, id := vars["family"], vars["id"]

	if failure, ok := f.failureFor(family); ok {
		writeJSON(w, failure.status, envelope{Success: false, Message: failure.message})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, record := range f.records[family] {
		if record["_id"] == id {
			f.records[family] = append(f.records[family][:i], f.records[family][i+1:]...)
			writeJSON(w, http.StatusOK, envelope{Success: true, Message: "deleted successfully"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "record not found"})
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func atoiDefault(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
