package session

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"mighty-lite/internal/store"
	"mighty-lite/internal/wire"
	"mighty-lite/mighty"
)

// API is the small JSON surface next to the websocket endpoints: accounts,
// room creation and rating history.
type API struct {
	server *Server
	store  store.Service
}

func NewAPI(server *Server, svc store.Service) *API {
	return &API{server: server, store: svc}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", a.handleRegister)
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("POST /api/room", a.handleMakeRoom)
	mux.HandleFunc("GET /api/rating", a.handleRating)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Encode: %v", err)
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, store.ErrDuplicateID):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "id already taken"})
	case errors.Is(err, store.ErrBadPassword):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "wrong password"})
	case errors.Is(err, store.ErrEmptyField):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing field"})
	default:
		log.Printf("[API] Store: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Id       string `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}
	info, err := a.store.RegisterUser(r.Context(), req.Id, req.Name, req.Email, req.Password)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Id       string `json:"id"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}
	info, err := a.store.Authenticate(r.Context(), req.Id, req.Password)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *API) handleMakeRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string       `json:"name"`
		Rule   *mighty.Rule `json:"rule"`
		IsRank bool         `json:"is_rank"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad request"})
		return
	}
	if req.Rule == nil {
		req.Rule = mighty.Default5()
	}
	rm, err := a.server.hub.MakeRoom(req.Name, req.Rule, req.IsRank)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	info := rm.Info()
	writeJSON(w, http.StatusCreated, wire.ListServer{Room: &info})
}

func (a *API) handleRating(w http.ResponseWriter, r *http.Request) {
	userNo, ok := queryInt(r, "user")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user query parameter required"})
		return
	}
	window := 0
	if n, ok := queryInt(r, "window"); ok {
		window = int(n)
	}
	entries, err := a.store.GetRating(r.Context(), userNo, window)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
