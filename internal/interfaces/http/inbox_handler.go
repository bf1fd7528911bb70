// Package apihttp is the system's one external-collaborator HTTP
// surface (spec.md §6, SPEC_FULL.md §2): raw RSM envelope ingestion and
// read-only settlement/reconciliation queries, wrapped by the same
// auth.Middleware every other route uses. Grounded on
// internal/api/http.handlers.go: small ServeHTTP-implementing structs
// holding just the dependencies they query, no router framework.
package apihttp

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/dkenergy/dh-settlement/internal/messaging/application"
	"github.com/dkenergy/dh-settlement/internal/messaging/domain"
)

const maxInboxBodyBytes = 1 << 20

// InboxHandler serves POST /api/v1/inbox (spec.md §6: raw envelope
// ingestion, used by migration/simulation tooling).
type InboxHandler struct {
	Inbox *application.InboxService
}

// NewInboxHandler constructs an InboxHandler.
func NewInboxHandler(inbox *application.InboxService) *InboxHandler {
	return &InboxHandler{Inbox: inbox}
}

type inboxAcceptedResponse struct {
	MessageID       string `json:"message_id"`
	BusinessProcess string `json:"business_process"`
	IsProcessed     bool   `json:"is_processed"`
}

func (h *InboxHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.Inbox == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxInboxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	env, err := messaging.Parse(raw)
	if err != nil {
		http.Error(w, "invalid envelope: "+err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.Inbox.Receive(r.Context(), env, raw, time.Now().UTC())
	if err != nil {
		http.Error(w, "failed to record envelope", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(inboxAcceptedResponse{
		MessageID:       msg.MessageID,
		BusinessProcess: msg.BusinessProcess,
		IsProcessed:     msg.IsProcessed,
	})
}
