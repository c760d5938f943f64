package message

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"messenger/infrastructure"
)

// AccessPolicy decides who may post to and read from a chat. It returns
// ErrForbidden or ErrNotFound to refuse.
type AccessPolicy interface {
	CanSend(ctx context.Context, callerID string, chatType ChatType, chatID string) error
	CanRead(ctx context.Context, callerID string, chatType ChatType, chatID string) error
}

type JSONHandler struct {
	service *Service
	policy  AccessPolicy
}

func NewJSONHandler(service *Service, policy AccessPolicy) *JSONHandler {
	return &JSONHandler{service: service, policy: policy}
}

func chatFromPath(r *http.Request) (ChatType, string, error) {
	vars := mux.Vars(r)
	chatType, err := ParseChatType(vars["type"])
	if err != nil {
		return "", "", err
	}
	return chatType, vars["id"], nil
}

func (h *JSONHandler) Send(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	chatType, chatID, err := chatFromPath(r)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	var req SendInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.ChatType, req.ChatID = chatType, chatID

	if err := h.policy.CanSend(r.Context(), callerID, chatType, chatID); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	m, err := h.service.Send(r.Context(), callerID, req)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, map[string]string{"id": m.ID})
}

func (h *JSONHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	chatType, chatID, err := chatFromPath(r)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
	}

	if err := h.policy.CanRead(r.Context(), callerID, chatType, chatID); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	msgs, err := h.service.List(r.Context(), chatType, chatID, limit)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, msgs)
}

func (h *JSONHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	m, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err == nil {
		err = h.policy.CanRead(r.Context(), callerID, m.ChatType, m.ChatID)
	}
	infrastructure.WriteOptional(w, r, m, err)
}

func (h *JSONHandler) Edit(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.service.Edit(r.Context(), callerID, mux.Vars(r)["id"], req.Content); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JSONHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, err := infrastructure.CallerFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), callerID, mux.Vars(r)["id"]); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetupJSONRoutes Helper function to set up routes
func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/chats/{type}/{id}/messages", h.List).Methods("GET")
	r.HandleFunc("/chats/{type}/{id}/messages", h.Send).Methods("POST")
	r.HandleFunc("/messages/{id}", h.Get).Methods("GET")
	r.HandleFunc("/messages/{id}", h.Edit).Methods("PATCH")
	r.HandleFunc("/messages/{id}", h.Delete).Methods("DELETE")
}
