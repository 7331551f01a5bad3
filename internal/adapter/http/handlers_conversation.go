package http

import (
	"net/http"
)

// ListConversations returns the tenant's conversations, most recently
// active first.
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.ledger.Conversations(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

// GetConversation returns one conversation within the tenant scope.
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.ledger.Conversation(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// ListConversationMessages returns a conversation's messages oldest-first.
func (h *Handlers) ListConversationMessages(w http.ResponseWriter, r *http.Request) {
	// Resolve through the tenant scope first so one tenant cannot page
	// through another's message ids.
	conv, err := h.ledger.Conversation(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}

	messages, err := h.ledger.History(r.Context(), conv.ID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}
