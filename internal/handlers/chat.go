package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/voiceboard/voiceboard/internal/models"
	"github.com/voiceboard/voiceboard/internal/queue"
	"github.com/voiceboard/voiceboard/internal/services/ai"
	"github.com/voiceboard/voiceboard/internal/validation"
)

// HistoryStore loads and clears remembered exchanges. Satisfied by
// *database.ChatHistoryRepository. Appends go through the job queue, not
// this interface.
type HistoryStore interface {
	ListRecent(ctx context.Context) ([]models.ChatExchange, error)
	Clear(ctx context.Context) error
}

// ChatHandler handles assistant chat requests
type ChatHandler struct {
	provider    ai.CompletionProvider
	historyRepo HistoryStore
	jobQueue    queue.JobQueue
	log         *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(provider ai.CompletionProvider, historyRepo HistoryStore, jobQueue queue.JobQueue, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		provider:    provider,
		historyRepo: historyRepo,
		jobQueue:    jobQueue,
		log:         log,
	}
}

// RegisterRoutes registers chat routes on the given router
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat/messages", h.SendMessage).Methods("POST")
	r.HandleFunc("/chat/history", h.GetHistory).Methods("GET")
	r.HandleFunc("/chat/history", h.ClearHistory).Methods("DELETE")
}

// ChatMessageRequest represents a chat message request
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// ChatMessageResponse represents the assistant's reply
type ChatMessageResponse struct {
	ID       string `json:"id"`
	Message  string `json:"message"`
	Response string `json:"response"`
}

// SendMessage sends a message to the assistant. The exchange is recorded
// asynchronously through the job queue; a queue failure never blocks the
// reply.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Assistant is not configured")
		return
	}

	var req ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	message := validation.SanitizeText(req.Message)
	ctx := r.Context()

	messages := h.conversation(ctx, message)
	response, err := h.provider.Complete(ctx, messages)
	if err != nil {
		if ai.IsQuotaError(err) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":        false,
				"error":          "Service Unavailable",
				"message":        "Assistant quota exceeded",
				"is_quota_error": true,
				"timestamp":      time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		if ai.IsRateLimitError(err) {
			w.Header().Set("Retry-After", "60")
			respondJSONError(w, http.StatusTooManyRequests, "Too Many Requests", "Assistant is rate limited, try again shortly")
			return
		}
		h.log.Error("chat_completion_failed", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Assistant request failed")
		return
	}

	exchangeID := uuid.New()
	job := queue.NewHistoryAppendJob(exchangeID, message, response)
	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		// Fire and forget: history persistence must not fail the reply.
		h.log.Warn("history_enqueue_failed",
			zap.String("exchange_id", exchangeID.String()),
			zap.Error(err))
	}

	respondJSON(w, http.StatusOK, ChatMessageResponse{
		ID:       exchangeID.String(),
		Message:  message,
		Response: response,
	})
}

// GetHistory returns the most recent exchanges in chronological order
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	exchanges, err := h.historyRepo.ListRecent(r.Context())
	if err != nil {
		h.log.Error("chat_history_load_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load chat history")
		return
	}
	respondJSON(w, http.StatusOK, exchanges)
}

// ClearHistory forgets all remembered exchanges. Pending history-append jobs
// already on the queue will still land afterwards; the assistant simply loses
// its conversational context from this point.
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.historyRepo.Clear(r.Context()); err != nil {
		h.log.Error("chat_history_clear_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to clear chat history")
		return
	}
	h.log.Info("chat_history_cleared")
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// conversation builds the message list for the completion call: the
// remembered exchanges followed by the new user message.
func (h *ChatHandler) conversation(ctx context.Context, message string) []ai.ChatMessage {
	var messages []ai.ChatMessage

	exchanges, err := h.historyRepo.ListRecent(ctx)
	if err != nil {
		// Degrade to a contextless conversation rather than failing.
		h.log.Warn("chat_history_unavailable", zap.Error(err))
	} else {
		for _, e := range exchanges {
			messages = append(messages,
				ai.ChatMessage{Role: "user", Content: e.Message},
				ai.ChatMessage{Role: "assistant", Content: e.Response},
			)
		}
	}

	return append(messages, ai.ChatMessage{Role: "user", Content: message})
}
