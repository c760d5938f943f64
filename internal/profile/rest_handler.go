package profile

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

func (h *JSONHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	p, err := h.service.GetOrCreate(r.Context(), callerID)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"id": p.ID})
}

func (h *JSONHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	v, err := h.service.GetMine(r.Context(), callerID)
	infrastructure.WriteOptional(w, r, v, err)
}

func (h *JSONHandler) GetByUserID(w http.ResponseWriter, r *http.Request) {
	if _, err := infrastructure.CallerFromContext(r.Context()); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	v, err := h.service.GetByUserID(r.Context(), mux.Vars(r)["userID"])
	infrastructure.WriteOptional(w, r, v, err)
}

func (h *JSONHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	var req UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), callerID, req); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) SetPresence(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	var req struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.service.SetPresence(r.Context(), callerID, req.Online); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) Search(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	found, err := h.service.Search(r.Context(), callerID, r.URL.Query().Get("q"))
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, found)
}

func (h *JSONHandler) GenerateUploadURL(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	target, err := h.service.GenerateUploadURL(r.Context(), callerID)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, target)
}

func (h *JSONHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	var req struct {
		Ref string `json:"ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.service.UpdateAvatar(r.Context(), callerID, req.Ref); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) RemoveAvatar(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	if err := h.service.RemoveAvatar(r.Context(), callerID); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetupJSONRoutes Helper function to set up routes
func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/profile", h.GetOrCreate).Methods("POST")
	r.HandleFunc("/profile/me", h.GetMine).Methods("GET")
	r.HandleFunc("/profile/me", h.Update).Methods("PATCH")
	r.HandleFunc("/profile/me/presence", h.SetPresence).Methods("PUT")
	r.HandleFunc("/profile/me/avatar/upload-url", h.GenerateUploadURL).Methods("POST")
	r.HandleFunc("/profile/me/avatar", h.UpdateAvatar).Methods("PUT")
	r.HandleFunc("/profile/me/avatar", h.RemoveAvatar).Methods("DELETE")
	r.HandleFunc("/profiles/search", h.Search).Methods("GET")
	r.HandleFunc("/profiles/{userID}", h.GetByUserID).Methods("GET")
}
