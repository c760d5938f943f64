package channel

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"messenger/infrastructure"
)

type JSONHandler struct {
	service *Service
}

func NewJSONHandler(service *Service) *JSONHandler {
	return &JSONHandler{service: service}
}

func (h *JSONHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	var req CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	id, err := h.service.Create(r.Context(), callerID, req)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *JSONHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	if err := h.service.Subscribe(r.Context(), callerID, mux.Vars(r)["id"]); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	if err := h.service.Unsubscribe(r.Context(), callerID, mux.Vars(r)["id"]); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, err := infrastructure.CallerFromContext(r.Context()); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	found, err := h.service.SearchPublic(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, found)
}

func (h *JSONHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	channels, err := h.service.ListMine(r.Context(), callerID)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, channels)
}

func (h *JSONHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	v, err := h.service.Get(r.Context(), callerID, mux.Vars(r)["id"])
	infrastructure.WriteOptional(w, r, v, err)
}

// SetupJSONRoutes Helper function to set up routes
func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/channels", h.ListMine).Methods("GET")
	r.HandleFunc("/channels", h.Create).Methods("POST")
	r.HandleFunc("/channels/search", h.Search).Methods("GET")
	r.HandleFunc("/channels/{id}", h.Get).Methods("GET")
	r.HandleFunc("/channels/{id}/subscription", h.Subscribe).Methods("PUT")
	r.HandleFunc("/channels/{id}/subscription", h.Unsubscribe).Methods("DELETE")
}
