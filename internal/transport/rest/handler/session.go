package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"letsgohome/internal/model"
	"letsgohome/internal/service"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	GuestID       string               `json:"guestId"`
	Condition     string               `json:"condition,omitempty"`
	ThresholdRule *model.ThresholdRule `json:"thresholdRule,omitempty"`
}

// ParticipantRequest is the request body for join/click/unclick
type ParticipantRequest struct {
	GuestID string `json:"guestId"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GuestID == "" {
		writeError(w, http.StatusBadRequest, "guestId is required")
		return
	}

	session, err := h.sessionSvc.Create(r.Context(), req.GuestID, req.Condition, req.ThresholdRule)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	// Snapshot carries the new sessionId for the client to share.
	writeJSON(w, http.StatusCreated, session.Snapshot())
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	snap, err := h.sessionSvc.GetPublicState(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// Join handles POST /v1/sessions/{id}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.sessionSvc.Join)
}

// Click handles POST /v1/sessions/{id}/click
func (h *SessionHandler) Click(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.sessionSvc.Click)
}

// Unclick handles POST /v1/sessions/{id}/unclick
func (h *SessionHandler) Unclick(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.sessionSvc.Unclick)
}

// mutate is the shared request cycle for the participant actions:
// decode the guest, run the operation, reply with the committed snapshot.
func (h *SessionHandler) mutate(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, sessionID, guestID string) (*model.Snapshot, error)) {

	id := mux.Vars(r)["id"]

	var req ParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GuestID == "" {
		writeError(w, http.StatusBadRequest, "guestId is required")
		return
	}

	snap, err := op(r.Context(), id, req.GuestID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// statusFor maps coordinator error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
