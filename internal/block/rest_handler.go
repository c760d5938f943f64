package block

import (
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

func (h *JSONHandler) Block(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	if err := h.service.Block(r.Context(), callerID, mux.Vars(r)["userID"]); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	if err := h.service.Unblock(r.Context(), callerID, mux.Vars(r)["userID"]); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) IsBlocked(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	blocked, err := h.service.IsBlocked(r.Context(), callerID, mux.Vars(r)["userID"])
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]bool{"blocked": blocked})
}

func (h *JSONHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	entries, err := h.service.ListBlocked(r.Context(), callerID)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, entries)
}

// SetupJSONRoutes Helper function to set up routes
func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/blocks", h.List).Methods("GET")
	r.HandleFunc("/blocks/{userID}", h.IsBlocked).Methods("GET")
	r.HandleFunc("/blocks/{userID}", h.Block).Methods("PUT")
	r.HandleFunc("/blocks/{userID}", h.Unblock).Methods("DELETE")
}
