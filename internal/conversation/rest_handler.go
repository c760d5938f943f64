package conversation

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

func (h *JSONHandler) GetOrCreateDirect(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	id, err := h.service.GetOrCreateDirect(r.Context(), callerID, req.UserID)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *JSONHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	convs, err := h.service.ListMine(r.Context(), callerID)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, convs)
}

func (h *JSONHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	c, err := h.service.Get(r.Context(), callerID, mux.Vars(r)["id"])
	infrastructure.WriteOptional(w, r, c, err)
}

func (h *JSONHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	var req CreateGroupInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	id, err := h.service.CreateGroup(r.Context(), callerID, req)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *JSONHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.service.AddMember(r.Context(), callerID, mux.Vars(r)["id"], req.UserID); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	if err := h.service.LeaveGroup(r.Context(), callerID, mux.Vars(r)["id"]); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) ListMyGroups(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	groups, err := h.service.ListMyGroups(r.Context(), callerID)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, groups)
}

func (h *JSONHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	g, err := h.service.GetGroup(r.Context(), callerID, mux.Vars(r)["id"])
	infrastructure.WriteOptional(w, r, g, err)
}

// SetupJSONRoutes Helper function to set up routes
func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/conversations", h.ListMine).Methods("GET")
	r.HandleFunc("/conversations", h.GetOrCreateDirect).Methods("POST")
	r.HandleFunc("/conversations/{id}", h.Get).Methods("GET")
	r.HandleFunc("/groups", h.ListMyGroups).Methods("GET")
	r.HandleFunc("/groups", h.CreateGroup).Methods("POST")
	r.HandleFunc("/groups/{id}", h.GetGroup).Methods("GET")
	r.HandleFunc("/groups/{id}/members", h.AddMember).Methods("POST")
	r.HandleFunc("/groups/{id}/members/me", h.LeaveGroup).Methods("DELETE")
}
